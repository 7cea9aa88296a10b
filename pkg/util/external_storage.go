// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	gcsStorage "cloud.google.com/go/storage"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/ratelimit"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/pingcap/log"
	"github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Minute

// Supported storage uri schemes.
const (
	SchemeGCS   = "gs"
	SchemeS3    = "s3"
	SchemeAzure = "azure"
	SchemeFile  = "file"
)

// ExternalStorage is the subset of object storage operations used to publish
// model artifacts. Names are relative to the base uri of the storage.
type ExternalStorage interface {
	// WriteFile writes a complete object, replacing any previous content.
	WriteFile(ctx context.Context, name string, data []byte) error
	// FileExists reports whether an object exists.
	FileExists(ctx context.Context, name string) (bool, error)
	// URI returns the uri of an object.
	URI(name string) string
	Close()
}

// StorageOptions carries backend specific settings.
type StorageOptions struct {
	// Region of the s3 bucket. Empty uses the AWS default chain.
	Region string
	// AzureConnectionString authenticates azure:// storage.
	AzureConnectionString string
	// Timeout bounds every call whose context has no deadline.
	Timeout time.Duration
}

// StorageURI is a parsed storage location.
type StorageURI struct {
	Scheme string
	// Bucket is the bucket or container. Empty for file uris.
	Bucket string
	// Prefix is the object key prefix, or the directory of a file uri.
	Prefix string
}

// ParseStorageURI parses gs://bucket/prefix, s3://bucket/prefix,
// azure://container/prefix and file:///dir uris.
func ParseStorageURI(uri string) (*StorageURI, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return nil, errors.WrapError(errors.ErrStorageURIInvalid, err, uri)
	}
	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "gcs":
		scheme = SchemeGCS
	case "azblob":
		scheme = SchemeAzure
	}

	switch scheme {
	case SchemeGCS, SchemeS3, SchemeAzure:
		if u.Host == "" {
			return nil, errors.ErrStorageURIInvalid.GenWithStackByArgs(uri)
		}
		return &StorageURI{
			Scheme: scheme,
			Bucket: u.Host,
			Prefix: strings.Trim(u.Path, "/"),
		}, nil
	case SchemeFile:
		dir := u.Path
		if u.Host != "" {
			// file://relative/dir
			dir = filepath.Join(u.Host, u.Path)
		}
		if dir == "" {
			return nil, errors.ErrStorageURIInvalid.GenWithStackByArgs(uri)
		}
		return &StorageURI{Scheme: SchemeFile, Prefix: dir}, nil
	default:
		return nil, errors.ErrStorageURIInvalid.GenWithStackByArgs(uri)
	}
}

func (u *StorageURI) key(name string) string {
	return path.Join(u.Prefix, name)
}

func (u *StorageURI) uri(name string) string {
	if u.Scheme == SchemeFile {
		return SchemeFile + "://" + filepath.Join(u.Prefix, name)
	}
	return u.Scheme + "://" + u.Bucket + "/" + u.key(name)
}

// GetExternalStorageWithDefaultTimeout creates an ExternalStorage from a uri.
// Every call on the returned storage is bounded by opts.Timeout, or a default
// of five minutes, unless the caller's context already has a deadline.
func GetExternalStorageWithDefaultTimeout(
	ctx context.Context, uri string, opts *StorageOptions,
) (ExternalStorage, error) {
	if opts == nil {
		opts = &StorageOptions{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s, err := getExternalStorage(ctx, uri, opts)
	if err != nil {
		return nil, err
	}
	return &extStorageWithTimeout{
		ExternalStorage: s,
		timeout:         timeout,
	}, nil
}

func getExternalStorage(
	ctx context.Context, uri string, opts *StorageOptions,
) (ExternalStorage, error) {
	parsed, err := ParseStorageURI(uri)
	if err != nil {
		return nil, err
	}

	var ret ExternalStorage
	switch parsed.Scheme {
	case SchemeGCS:
		client, err := gcsStorage.NewClient(ctx)
		if err != nil {
			return nil, errors.ErrRemoteStorageAPI.Wrap(errors.Trace(err)).
				GenWithStackByArgs("creating gcs client")
		}
		ret = &gcsExternalStorage{base: parsed, client: client}
	case SchemeS3:
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRetryer(DefaultS3Retryer),
		}
		if opts.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.ErrRemoteStorageAPI.Wrap(errors.Trace(err)).
				GenWithStackByArgs("loading aws config")
		}
		ret = &s3ExternalStorage{base: parsed, client: s3.NewFromConfig(cfg)}
	case SchemeAzure:
		if opts.AzureConnectionString == "" {
			return nil, errors.ErrRemoteStorageAPI.GenWithStackByArgs(
				"azure storage requires a connection string")
		}
		client, err := azblob.NewClientFromConnectionString(opts.AzureConnectionString, nil)
		if err != nil {
			return nil, errors.ErrRemoteStorageAPI.Wrap(errors.Trace(err)).
				GenWithStackByArgs("creating azure client")
		}
		ret = &azureExternalStorage{base: parsed, client: client}
	case SchemeFile:
		if err := os.MkdirAll(parsed.Prefix, 0o755); err != nil {
			return nil, errors.ErrRemoteStorageAPI.Wrap(errors.Trace(err)).
				GenWithStackByArgs("creating local storage")
		}
		ret = &localExternalStorage{base: parsed}
	}

	// Check the connection and ignore the returned bool value, since we don't care if the file exists.
	if _, err := ret.FileExists(ctx, "test"); err != nil {
		ret.Close()
		return nil, errors.ErrRemoteStorageAPI.Wrap(errors.Trace(err)).
			GenWithStackByArgs("creating ExternalStorage")
	}
	return ret, nil
}

// retryerWithLog wraps the standard aws retryer, and logs when retrying.
type retryerWithLog struct {
	*retry.Standard

	minRetryDelay    time.Duration
	minThrottleDelay time.Duration
}

func isDeadlineExceedError(err error) bool {
	return strings.Contains(err.Error(), "context deadline exceeded")
}

func (rl retryerWithLog) IsErrorRetryable(err error) bool {
	if isDeadlineExceedError(err) {
		return false
	}
	return rl.Standard.IsErrorRetryable(err)
}

func (rl retryerWithLog) RetryDelay(attempt int, opErr error) (time.Duration, error) {
	backoffTime, err := rl.Standard.RetryDelay(attempt, opErr)
	if err != nil {
		return backoffTime, err
	}
	if backoffTime > 0 {
		log.Warn("failed to request s3, retrying",
			zap.Error(opErr),
			zap.Duration("backoff", backoffTime))
	}
	minDelay := rl.minRetryDelay
	if retry.IsErrorThrottles(retry.DefaultThrottles).IsErrorThrottle(opErr).Bool() {
		minDelay = rl.minThrottleDelay
	}
	if backoffTime < minDelay {
		backoffTime = minDelay
	}
	return backoffTime, nil
}

// DefaultS3Retryer is the retryer of s3 storage clients.
func DefaultS3Retryer() aws.Retryer {
	return retryerWithLog{
		Standard: retry.NewStandard(func(so *retry.StandardOptions) {
			so.MaxAttempts = 3
			so.MaxBackoff = 32 * time.Second
			so.RateLimiter = ratelimit.None
		}),
		minRetryDelay:    1 * time.Second,
		minThrottleDelay: 2 * time.Second,
	}
}

type extStorageWithTimeout struct {
	ExternalStorage
	timeout time.Duration
}

func withTimeoutIfNoDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// WriteFile writes a complete file to storage, similar to os.WriteFile.
func (s *extStorageWithTimeout) WriteFile(ctx context.Context, name string, data []byte) error {
	ctx, cancel := withTimeoutIfNoDeadline(ctx, s.timeout)
	defer cancel()
	err := s.ExternalStorage.WriteFile(ctx, name, data)
	if err != nil {
		err = errors.ErrRemoteStorageAPI.Wrap(err).GenWithStackByArgs("WriteFile")
	}
	return err
}

// FileExists return true if file exists
func (s *extStorageWithTimeout) FileExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := withTimeoutIfNoDeadline(ctx, s.timeout)
	defer cancel()
	exists, err := s.ExternalStorage.FileExists(ctx, name)
	if err != nil {
		err = errors.ErrRemoteStorageAPI.Wrap(err).GenWithStackByArgs("FileExists")
	}
	return exists, err
}

type gcsExternalStorage struct {
	base   *StorageURI
	client *gcsStorage.Client
}

func (s *gcsExternalStorage) object(name string) *gcsStorage.ObjectHandle {
	return s.client.Bucket(s.base.Bucket).Object(s.base.key(name))
}

func (s *gcsExternalStorage) WriteFile(ctx context.Context, name string, data []byte) error {
	w := s.object(name).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return errors.Trace(err)
	}
	return errors.Trace(w.Close())
}

func (s *gcsExternalStorage) FileExists(ctx context.Context, name string) (bool, error) {
	_, err := s.object(name).Attrs(ctx)
	if err != nil {
		if IsNotExistInExtStorage(err) {
			return false, nil
		}
		return false, errors.Trace(err)
	}
	return true, nil
}

func (s *gcsExternalStorage) URI(name string) string { return s.base.uri(name) }

func (s *gcsExternalStorage) Close() {
	if err := s.client.Close(); err != nil {
		log.Warn("close gcs client failed", zap.Error(err))
	}
}

type s3ExternalStorage struct {
	base   *StorageURI
	client *s3.Client
}

func (s *s3ExternalStorage) WriteFile(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.base.Bucket),
		Key:           aws.String(s.base.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return errors.Trace(err)
}

func (s *s3ExternalStorage) FileExists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.base.Bucket),
		Key:    aws.String(s.base.key(name)),
	})
	if err != nil {
		if IsNotExistInExtStorage(err) {
			return false, nil
		}
		return false, errors.Trace(err)
	}
	return true, nil
}

func (s *s3ExternalStorage) URI(name string) string { return s.base.uri(name) }

func (s *s3ExternalStorage) Close() {}

type azureExternalStorage struct {
	base   *StorageURI
	client *azblob.Client
}

func (s *azureExternalStorage) WriteFile(ctx context.Context, name string, data []byte) error {
	_, err := s.client.UploadBuffer(ctx, s.base.Bucket, s.base.key(name), data, nil)
	return errors.Trace(err)
}

func (s *azureExternalStorage) FileExists(ctx context.Context, name string) (bool, error) {
	blobClient := s.client.ServiceClient().
		NewContainerClient(s.base.Bucket).
		NewBlobClient(s.base.key(name))
	_, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if IsNotExistInExtStorage(err) {
			return false, nil
		}
		return false, errors.Trace(err)
	}
	return true, nil
}

func (s *azureExternalStorage) URI(name string) string { return s.base.uri(name) }

func (s *azureExternalStorage) Close() {}

type localExternalStorage struct {
	base *StorageURI
}

func (s *localExternalStorage) WriteFile(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return errors.Trace(err)
	}
	target := filepath.Join(s.base.Prefix, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.WriteFile(target, data, 0o644))
}

func (s *localExternalStorage) FileExists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, errors.Trace(err)
	}
	_, err := os.Stat(filepath.Join(s.base.Prefix, filepath.FromSlash(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Trace(err)
	}
	return true, nil
}

func (s *localExternalStorage) URI(name string) string { return s.base.uri(name) }

func (s *localExternalStorage) Close() {}

// IsNotExistInExtStorage checks if the error is caused by the file not exist in external storage.
func IsNotExistInExtStorage(err error) bool {
	if err == nil {
		return false
	}

	if os.IsNotExist(errors.Cause(err)) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NoSuchKey", "NotFound":
			return true
		}
	}

	if errors.Is(err, gcsStorage.ErrObjectNotExist) || errors.Is(err, gcsStorage.ErrBucketNotExist) {
		return true
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		if respErr.StatusCode == http.StatusNotFound {
			return true
		}
	}
	return false
}
