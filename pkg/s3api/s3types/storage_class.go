// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3types

import "fmt"

type StorageClass uint8

const (
	StorageClassUnknown StorageClass = iota
	StorageClassStandard
	StorageClassInfrequentAccess
	StorageClassOneZoneInfrequentAccess
	StorageClassIntelligentTiering
	StorageClassGlacier
	StorageClassGlacierInstantRetrieval
	StorageClassDeepArchive
	StorageClassReducedRedundancy
	StorageClassExpressOneZone
)

var (
	storageClassTypes = map[StorageClass]string{
		StorageClassUnknown:                 "UNKNOWN",
		StorageClassStandard:                "STANDARD",
		StorageClassInfrequentAccess:        "STANDARD_IA",
		StorageClassOneZoneInfrequentAccess: "ONEZONE_IA",
		StorageClassIntelligentTiering:      "INTELLIGENT_TIERING",
		StorageClassGlacier:                 "GLACIER",
		StorageClassGlacierInstantRetrieval: "GLACIER_IR",
		StorageClassDeepArchive:             "DEEP_ARCHIVE",
		StorageClassReducedRedundancy:       "REDUCED_REDUNDANCY",
		StorageClassExpressOneZone:          "EXPRESS_ONEZONE",
	}
	storageClassNames = func() map[string]StorageClass {
		m := make(map[string]StorageClass, len(storageClassTypes))
		for sc, name := range storageClassTypes {
			if sc != StorageClassUnknown {
				m[name] = sc
			}
		}
		return m
	}()
)

func (sc StorageClass) String() string {
	if name, ok := storageClassTypes[sc]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseStorageClass accepts the x-amz-storage-class names. R2 only stores
// STANDARD and STANDARD_IA; other services accept the rest.
func ParseStorageClass(name string) (StorageClass, error) {
	if sc, ok := storageClassNames[name]; ok {
		return sc, nil
	}
	return StorageClassUnknown, fmt.Errorf("unknown storage class %q", name)
}
