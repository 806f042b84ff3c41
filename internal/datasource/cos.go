package datasource

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"

	"github.com/lbvhgo/lbvh/pkg/vecmath"
)

// COSConfig holds Tencent COS connection configuration.
type COSConfig struct {
	Bucket    string
	Region    string
	SecretID  string
	SecretKey string
	Domain    string // e.g., "myqcloud.com"
	Scheme    string // e.g., "https" or "http"
}

// COSSource implements Source over Tencent Cloud COS.
type COSSource struct {
	client *cos.Client
	bucket string
	region string
	domain string
	scheme string
}

// NewCOSSource creates a new COSSource instance.
func NewCOSSource(cfg *COSConfig) (*COSSource, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("bucket and region are required for COS dataset source")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("credentials are required for COS dataset source")
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "myqcloud.com"
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}

	bucketURL, err := url.Parse(fmt.Sprintf("%s://%s.cos.%s.%s", scheme, cfg.Bucket, cfg.Region, domain))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bucket URL: %w", err)
	}

	serviceURL, err := url.Parse(fmt.Sprintf("%s://cos.%s.%s", scheme, cfg.Region, domain))
	if err != nil {
		return nil, fmt.Errorf("failed to parse service URL: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{
		BucketURL:  bucketURL,
		ServiceURL: serviceURL,
	}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	return &COSSource{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		domain: domain,
		scheme: scheme,
	}, nil
}

// Load fetches the scene named by ref from COS.
func (s *COSSource) Load(ctx context.Context, ref string) ([]vecmath.Box, error) {
	resp, err := s.client.Object.Get(ctx, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download dataset from COS: %w", err)
	}
	defer resp.Body.Close()

	return decodeScene(resp.Body)
}

// Save uploads boxes under ref to COS.
func (s *COSSource) Save(ctx context.Context, ref string, boxes []vecmath.Box) error {
	data, err := encodeScene(boxes)
	if err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}

	_, err = s.client.Object.Put(ctx, ref, bytes.NewReader(data), nil)
	if err != nil {
		return fmt.Errorf("failed to upload dataset to COS: %w", err)
	}
	return nil
}

// Exists checks if ref names an existing object in COS.
func (s *COSSource) Exists(ctx context.Context, ref string) (bool, error) {
	ok, err := s.client.Object.IsExist(ctx, ref)
	if err != nil {
		return false, fmt.Errorf("failed to check existence in COS: %w", err)
	}
	return ok, nil
}

// GetURL returns the public URL for the given ref.
func (s *COSSource) GetURL(ref string) string {
	return fmt.Sprintf("%s://%s.cos.%s.%s/%s", s.scheme, s.bucket, s.region, s.domain, ref)
}
