// Package upload issues signed S3 POST policies so clients can upload files
// directly to the bucket, and exposes the HTTP endpoints around them.
package upload

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	aclPublicRead       = "public-read"
	successActionStatus = "201"
	expirationLayout    = "2006-01-02T15:04:05.000Z"
	maxKeyLength        = 1024
)

// ErrInvalidInput is returned when a namespace or file name cannot form a valid storage key.
var ErrInvalidInput = errors.New("invalid upload input")

// ErrMisconfiguredCredentials is returned when the issuer lacks storage credentials or bucket settings.
var ErrMisconfiguredCredentials = errors.New("upload credentials misconfigured")

// Config holds the static storage settings an Issuer signs with.
type Config struct {
	AccessKeyID string
	SecretKey   string
	Bucket      string
	// BucketURL is the form POST target, e.g. "https://questbase.s3.amazonaws.com/".
	BucketURL string
	// CDNDomain is the host serving public objects, e.g. "cdn.questbase.io".
	CDNDomain string
	Expiry    time.Duration
}

// Args describes the direct upload request a client must perform.
type Args struct {
	Method string            `json:"method" example:"POST"`
	URL    string            `json:"url"    example:"https://questbase.s3.amazonaws.com/"`
	Data   map[string]string `json:"data"`
}

// Grant is a time-bounded authorization to upload one object.
type Grant struct {
	FileKey    string `json:"file_name"   example:"quests/1/science.png"`
	StorageURL string `json:"s3_url"      example:"https://questbase.s3.amazonaws.com/quests/1/science.png"`
	CDNURL     string `json:"cdn_url"     example:"https://cdn.questbase.io/quests/1/science.png"`
	UploadArgs Args   `json:"upload_args"`
}

// Issuer builds upload grants. It holds no mutable state and is safe for concurrent use.
type Issuer struct {
	cfg Config
	now func() time.Time
}

// NewIssuer returns an Issuer that signs with cfg. Missing credentials are reported by Issue.
func NewIssuer(cfg Config) *Issuer {
	if cfg.BucketURL != "" && !strings.HasSuffix(cfg.BucketURL, "/") {
		cfg.BucketURL += "/"
	}
	return &Issuer{cfg: cfg, now: time.Now}
}

// WithClock returns a copy of the issuer that reads time from now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	return &Issuer{cfg: i.cfg, now: now}
}

type policyDocument struct {
	Expiration string `json:"expiration"`
	Conditions []any  `json:"conditions"`
}

// Issue authorizes an upload of fileName under namespace with the declared mimeType.
// The mime type is embedded verbatim.
func (i *Issuer) Issue(namespace, fileName, mimeType string) (*Grant, error) {
	if err := i.checkConfig(); err != nil {
		return nil, err
	}

	key, err := Key(namespace, fileName)
	if err != nil {
		return nil, err
	}

	doc := policyDocument{
		Expiration: i.now().UTC().Add(i.cfg.Expiry).Format(expirationLayout),
		Conditions: []any{
			[]string{"eq", "$key", key},
			map[string]string{"bucket": i.cfg.Bucket},
			map[string]string{"acl": aclPublicRead},
			[]string{"eq", "$Content-Type", mimeType},
			map[string]string{"success_action_status": successActionStatus},
		},
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode policy: %w", err)
	}
	policy := base64.StdEncoding.EncodeToString(bytes.TrimRight(buf.Bytes(), "\n"))

	return &Grant{
		FileKey:    key,
		StorageURL: i.StorageURL(key),
		CDNURL:     i.CDNURL(key),
		UploadArgs: Args{
			Method: "POST",
			URL:    i.cfg.BucketURL,
			Data: map[string]string{
				"AWSAccessKeyId":        i.cfg.AccessKeyID,
				"Content-Type":          mimeType,
				"Policy":                policy,
				"Signature":             sign(i.cfg.SecretKey, policy),
				"acl":                   aclPublicRead,
				"key":                   key,
				"success_action_status": successActionStatus,
			},
		},
	}, nil
}

// StorageURL returns the bucket URL of key.
func (i *Issuer) StorageURL(key string) string {
	return i.cfg.BucketURL + escapeKey(key)
}

// CDNURL returns the public CDN URL of key.
func (i *Issuer) CDNURL(key string) string {
	return "https://" + strings.Trim(i.cfg.CDNDomain, "/") + "/" + escapeKey(key)
}

func (i *Issuer) checkConfig() error {
	var missing []string
	if i.cfg.AccessKeyID == "" {
		missing = append(missing, "access key")
	}
	if i.cfg.SecretKey == "" {
		missing = append(missing, "secret key")
	}
	if i.cfg.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if i.cfg.BucketURL == "" {
		missing = append(missing, "bucket url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMisconfiguredCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// sign computes the legacy S3 POST signature: base64(HMAC-SHA1(secret, policy)).
func sign(secret, policy string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(policy))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Key joins namespace and fileName into a storage key, rejecting components
// the bucket would not accept verbatim.
func Key(namespace, fileName string) (string, error) {
	namespace = strings.Trim(namespace, "/")
	if namespace == "" {
		return "", fmt.Errorf("%w: namespace is empty", ErrInvalidInput)
	}
	if fileName == "" {
		return "", fmt.Errorf("%w: file name is empty", ErrInvalidInput)
	}
	if strings.Contains(fileName, "/") {
		return "", fmt.Errorf("%w: file name %q contains a path separator", ErrInvalidInput, fileName)
	}

	key := namespace + "/" + fileName
	if len(key) > maxKeyLength {
		return "", fmt.Errorf("%w: key exceeds %d bytes", ErrInvalidInput, maxKeyLength)
	}
	if !utf8.ValidString(key) {
		return "", fmt.Errorf("%w: key is not valid UTF-8", ErrInvalidInput)
	}
	for _, r := range key {
		if unicode.IsControl(r) || r == '\\' {
			return "", fmt.Errorf("%w: key %q contains a disallowed character", ErrInvalidInput, key)
		}
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: key %q has an empty or relative segment", ErrInvalidInput, key)
		}
	}
	return key, nil
}

// escapeKey percent-encodes each path segment of key, keeping the separators.
func escapeKey(key string) string {
	segs := strings.Split(key, "/")
	for n, seg := range segs {
		segs[n] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}
