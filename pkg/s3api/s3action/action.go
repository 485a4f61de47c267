// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package s3action

// Action is one of the S3 operations zapctl sends.
// https://docs.aws.amazon.com/AmazonS3/latest/API/API_Operations_Amazon_Simple_Storage_Service.html
type Action int

// OperationType classifies actions by their effect on data.
type OperationType int

const (
	OpRead  OperationType = iota // GET, HEAD - retrieving data
	OpWrite                      // PUT, POST, DELETE - modifying data
	OpList                       // List operations - enumeration (typically more expensive)
)

func (o OperationType) String() string {
	switch o {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpList:
		return "list"
	default:
		return "unknown"
	}
}

// ResourceType indicates whether an action operates on a bucket or object.
type ResourceType int

const (
	ResourceBucket  ResourceType = iota // Bucket-level operations
	ResourceObject                      // Object-level operations
	ResourceService                     // Service-level operations (e.g., ListBuckets)
)

func (r ResourceType) String() string {
	switch r {
	case ResourceBucket:
		return "bucket"
	case ResourceObject:
		return "object"
	case ResourceService:
		return "service"
	default:
		return "unknown"
	}
}

const (
	Unknown Action = iota
	CopyObject
	CreateBucket
	DeleteBucket
	DeleteObject
	DeleteObjects
	GetObject
	HeadBucket
	HeadObject
	ListBuckets
	ListObjects
	ListObjectsV2
	PutObject
	UploadPart
)

// actionNames are the command and metric names. ListObjectsV2 is the
// default listing, so it takes the plain name.
var actionNames = map[Action]string{
	CopyObject:    "copy-object",
	CreateBucket:  "create-bucket",
	DeleteBucket:  "delete-bucket",
	DeleteObject:  "delete-object",
	DeleteObjects: "delete-objects",
	GetObject:     "get-object",
	HeadBucket:    "head-bucket",
	HeadObject:    "head-object",
	ListBuckets:   "list-buckets",
	ListObjects:   "list-objects-v1",
	ListObjectsV2: "list-objects",
	PutObject:     "put-object",
	UploadPart:    "upload-part",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for a, name := range actionNames {
		m[name] = a
	}
	return m
}()

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAction returns Unknown for names that are not actions.
func ParseAction(name string) Action {
	return actionsByName[name]
}

// OperationType returns the operation type for this action.
func (a Action) OperationType() OperationType {
	switch a {
	case GetObject, HeadObject, HeadBucket:
		return OpRead
	case ListBuckets, ListObjects, ListObjectsV2:
		return OpList
	default:
		return OpWrite
	}
}

// ResourceType returns the resource type for this action.
func (a Action) ResourceType() ResourceType {
	switch a {
	case ListBuckets:
		return ResourceService
	case CreateBucket, DeleteBucket, HeadBucket, ListObjects, ListObjectsV2, DeleteObjects:
		return ResourceBucket
	default:
		return ResourceObject
	}
}

// IsReadOnly returns true if the action does not modify data.
func (a Action) IsReadOnly() bool {
	return a.OperationType() != OpWrite
}

// RequiresObjectKey returns true if the action needs an object key.
func (a Action) RequiresObjectKey() bool {
	return a.ResourceType() == ResourceObject
}
