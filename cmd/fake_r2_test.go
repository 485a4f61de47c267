// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3consts"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3err"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/s3types"
	"github.com/LeeDigitalWorks/zapctl/pkg/s3api/signature"
	"github.com/LeeDigitalWorks/zapctl/pkg/utils"
)

const (
	testAccountID = "0123456789abcdef0123456789abcdef"
	testAPIToken  = "tok-abcdefghijklmnopqrstuvwxyz"
	testTokenID   = "f1e2d3c4b5a6"
	testBucket    = "photos"
)

var testModified = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

// fakeR2 is an in-memory R2: it verifies every signature against the token
// derived credentials and answers the token verification API.
type fakeR2 struct {
	server   *httptest.Server
	verifier *signature.Verifier
	dir      string

	mu          sync.Mutex
	objects     map[string][]byte
	created     map[string]bool
	s3Requests  int
	tokenChecks int
}

func newFakeR2(t *testing.T) *fakeR2 {
	t.Helper()
	secret := utils.Sha256Hex([]byte(testAPIToken))
	f := &fakeR2{objects: make(map[string][]byte), created: make(map[string]bool)}
	f.verifier = signature.NewVerifier(func(accessKey string) (string, bool) {
		return secret, accessKey == testTokenID
	})
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	f.dir = f.configDir(t)
	return f
}

func (f *fakeR2) put(key, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = []byte(data)
}

func (f *fakeR2) object(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return string(data), ok
}

func (f *fakeR2) requests() (s3, token int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s3Requests, f.tokenChecks
}

func etagOf(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func writeXML(w http.ResponseWriter, v any) {
	w.Header().Set(s3consts.ContentType, "application/xml")
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(v)
}

func (f *fakeR2) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/client/v4/user/tokens/verify" {
		f.verifyToken(w, r)
		return
	}

	f.mu.Lock()
	f.s3Requests++
	f.mu.Unlock()
	if err := f.verifier.VerifyRequest(r); err != nil {
		s3err.ErrSignatureDoesNotMatch.ToErrorResponse(r.URL.Path).Respond(w)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case bucket == "":
		writeXML(w, s3types.ListAllMyBucketsResult{
			Buckets: s3types.BucketList{Buckets: []s3types.BucketInfo{{Name: testBucket, CreationDate: testModified}}},
		})
	case key == "" && r.Method == http.MethodPut:
		f.createBucket(w, bucket)
	case key == "" && r.Method == http.MethodDelete:
		f.deleteBucket(w, bucket)
	case bucket != testBucket:
		s3err.ErrNoSuchBucket.ToErrorResponse("/" + bucket).Respond(w)
	case key == "":
		f.serveBucket(w, r, body)
	default:
		f.serveObject(w, r, key, body)
	}
}

func (f *fakeR2) bucketCreated(bucket string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[bucket]
}

func (f *fakeR2) createBucket(w http.ResponseWriter, bucket string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bucket == testBucket || f.created[bucket] {
		s3err.ErrBucketAlreadyOwnedByYou.ToErrorResponse("/" + bucket).Respond(w)
		return
	}
	f.created[bucket] = true
	w.Header().Set("Location", "/"+bucket)
	w.WriteHeader(http.StatusOK)
}

// deleteBucket removes created buckets. The seeded bucket is only ever
// reported as not empty or deleted, never removed.
func (f *fakeR2) deleteBucket(w http.ResponseWriter, bucket string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case bucket == testBucket && len(f.objects) > 0:
		s3err.ErrBucketNotEmpty.ToErrorResponse("/" + bucket).Respond(w)
	case bucket == testBucket:
		w.WriteHeader(http.StatusNoContent)
	case f.created[bucket]:
		delete(f.created, bucket)
		w.WriteHeader(http.StatusNoContent)
	default:
		s3err.ErrNoSuchBucket.ToErrorResponse("/" + bucket).Respond(w)
	}
}

func (f *fakeR2) verifyToken(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.tokenChecks++
	f.mu.Unlock()
	w.Header().Set(s3consts.ContentType, "application/json")
	if r.Header.Get("Authorization") != "Bearer "+testAPIToken {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"errors":[{"code":1000,"message":"Invalid API Token"}],"messages":[],"result":null}`)
		return
	}
	fmt.Fprintf(w, `{"success":true,"errors":[],"messages":[],"result":{"id":%q,"status":"active"}}`, testTokenID)
}

func (f *fakeR2) serveBucket(w http.ResponseWriter, r *http.Request, body []byte) {
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPost:
		var req s3types.DeleteObjectsRequest
		if err := xml.Unmarshal(body, &req); err != nil {
			s3err.ErrMalformedXML.ToErrorResponse(r.URL.Path).Respond(w)
			return
		}
		var result s3types.DeleteObjectsResult
		f.mu.Lock()
		for _, o := range req.Objects {
			if strings.HasPrefix(o.Key, "locked/") {
				result.Errors = append(result.Errors, s3types.DeleteError{Key: o.Key, Code: "AccessDenied", Message: "Access Denied"})
				continue
			}
			delete(f.objects, o.Key)
			result.Deleted = append(result.Deleted, s3types.DeletedObject{Key: o.Key})
		}
		f.mu.Unlock()
		writeXML(w, result)
	default:
		q := r.URL.Query()
		prefix, delimiter := q.Get(s3consts.QueryPrefix), q.Get(s3consts.QueryDelimiter)
		var (
			entries  []s3types.ListObjectEntry
			prefixes []s3types.CommonPrefix
			seen     = map[string]bool{}
		)
		f.mu.Lock()
		keys := make([]string, 0, len(f.objects))
		for k := range f.objects {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !strings.HasPrefix(k, prefix) {
				continue
			}
			if i := strings.Index(k[len(prefix):], delimiter); delimiter != "" && i >= 0 {
				p := k[:len(prefix)+i+len(delimiter)]
				if !seen[p] {
					seen[p] = true
					prefixes = append(prefixes, s3types.CommonPrefix{Prefix: p})
				}
				continue
			}
			entries = append(entries, s3types.ListObjectEntry{Key: k, Size: int64(len(f.objects[k])), LastModified: testModified})
		}
		f.mu.Unlock()
		if q.Get(s3consts.QueryListType) == "2" {
			writeXML(w, s3types.ListObjectsV2Result{Name: testBucket, Prefix: prefix, Contents: entries, CommonPrefixes: prefixes})
			return
		}
		writeXML(w, s3types.ListObjectsResult{Name: testBucket, Prefix: prefix, Contents: entries, CommonPrefixes: prefixes})
	}
}

func (f *fakeR2) serveObject(w http.ResponseWriter, r *http.Request, key string, body []byte) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		data, ok := f.object(key)
		if !ok {
			s3err.ErrNoSuchKey.ToErrorResponse(r.URL.Path).Respond(w)
			return
		}
		w.Header().Set(s3consts.ETag, etagOf([]byte(data)))
		w.Header().Set(s3consts.ContentLength, fmt.Sprint(len(data)))
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, data)
		}
	case http.MethodPut:
		if src := r.Header.Get(s3consts.XAmzCopySource); src != "" {
			srcKey := strings.TrimPrefix(strings.TrimPrefix(src, "/"), testBucket+"/")
			data, ok := f.object(srcKey)
			if !ok {
				s3err.ErrNoSuchKey.ToErrorResponse("/" + src).Respond(w)
				return
			}
			f.put(key, data)
			writeXML(w, s3types.CopyObjectResult{ETag: etagOf([]byte(data)), LastModified: testModified})
			return
		}
		if hash := r.Header.Get(s3consts.XAmzContentSHA256); hash != signature.UnsignedPayload && hash != utils.Sha256Hex(body) {
			s3err.ErrBadDigest.ToErrorResponse(r.URL.Path).Respond(w)
			return
		}
		if !r.URL.Query().Has(s3consts.QueryUploadID) {
			f.put(key, string(body))
		}
		w.Header().Set(s3consts.ETag, etagOf(body))
	case http.MethodDelete:
		f.mu.Lock()
		delete(f.objects, key)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

// configDir writes a config file with three profiles: "main" has a token
// id, "lookup" needs one from the API and "wrong" has a bad secret.
func (f *fakeR2) configDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`profiles:
  main:
    account_id: %[1]s
    api_token: %[2]s
    token_id: %[3]s
    endpoint: %[4]s
    default: true
  lookup:
    account_id: %[1]s
    api_token: %[2]s
    endpoint: %[4]s
  wrong:
    account_id: %[1]s
    api_token: not-the-right-token
    token_id: %[3]s
    endpoint: %[4]s
`, testAccountID, testAPIToken, testTokenID, f.server.URL)
	if err := os.WriteFile(filepath.Join(dir, "zapctl.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}
