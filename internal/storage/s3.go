// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage uploads design screenshots to an S3-compatible bucket and
// builds their public URLs. It wraps the AWS SDK v2 and is configured for
// path-style access (required by CEPH/Hetzner/R2-style endpoints).
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"designforge/internal/slug"
)

// ErrUpload wraps every failed PutObject.
var ErrUpload = errors.New("storage: upload failed")

// Content types of the objects this package writes.
const (
	ContentTypePNG  = "image/png"
	ContentTypeWebP = "image/webp"
)

// Client uploads objects into one public bucket under a key folder.
type Client struct {
	s3        *s3.Client
	bucket    string
	folder    string
	endpoint  string
	publicURL string // optional CDN/direct URL for public files
}

// New creates an S3 storage client with path-style addressing.
func New(endpoint, region, accessKey, secretKey, bucket, folder, publicURL string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("storage: endpoint and credentials are required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}

	endpoint = strings.TrimRight(endpoint, "/")

	s3Client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:        s3Client,
		bucket:    bucket,
		folder:    strings.Trim(folder, "/"),
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// ObjectKey returns a fresh key for a screenshot:
// {folder}/{UTC 20060102_150405}_{category-slug}_{6 random hex}.png
func (c *Client) ObjectKey(now time.Time, category string) string {
	cat := slug.Generate(category)
	if cat == "" {
		cat = slug.Fallback
	}
	name := fmt.Sprintf("%s_%s_%s.png", now.UTC().Format("20060102_150405"), cat, uuid.NewString()[:6])
	if c.folder == "" {
		return name
	}
	return c.folder + "/" + name
}

// ThumbnailKey derives the WebP thumbnail key from a screenshot key.
func ThumbnailKey(key string) string {
	return strings.TrimSuffix(key, ".png") + "_thumb.webp"
}

// Upload stores data under key with public-read ACL and returns its
// public URL.
func (c *Client) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("%w: s3 upload %s/%s: %w", ErrUpload, c.bucket, key, err)
	}
	return c.FileURL(key), nil
}

// FileURL returns the public URL for a key. Uses the configured public URL
// if set, otherwise builds a path-style URL.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.bucket + "/" + key
}

// Bucket returns the bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}
