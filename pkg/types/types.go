package types

import "encoding/json"

// Checksum holds the digests the server reports for an asset
type Checksum struct {
	SHA1   string `json:"sha1,omitempty"`
	SHA256 string `json:"sha256,omitempty"`
	SHA512 string `json:"sha512,omitempty"`
	MD5    string `json:"md5,omitempty"`
}

// Asset represents a single stored file in a repository
type Asset struct {
	ID          string   `json:"id"`
	Path        string   `json:"path"`
	DownloadURL string   `json:"downloadUrl"`
	Repository  string   `json:"repository"`
	Format      string   `json:"format"`
	Checksum    Checksum `json:"checksum"`
	ContentType string   `json:"contentType,omitempty"`
	FileSize    int64    `json:"fileSize,omitempty"`
}

// Page is one page of a paginated collection endpoint
type Page struct {
	Items             json.RawMessage `json:"items"`
	ContinuationToken *string         `json:"continuationToken"`
}

// RepositorySummary is an entry of the repositories listing
type RepositorySummary struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Type   string `json:"type"`
	URL    string `json:"url"`
}

// Script is a stored groovy script
type Script struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// ScriptResult is the response of running a script
type ScriptResult struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}

// Task is a scheduled server task
type Task struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Message       string `json:"message,omitempty"`
	CurrentState  string `json:"currentState"`
	LastRunResult string `json:"lastRunResult,omitempty"`
	NextRun       string `json:"nextRun,omitempty"`
	LastRun       string `json:"lastRun,omitempty"`
}

// SoftQuota limits the space used by a blob store
type SoftQuota struct {
	Type  string `json:"type"`
	Limit int64  `json:"limit"`
}

// BlobStore is an entry of the blob store listing
type BlobStore struct {
	Name                  string     `json:"name"`
	Type                  string     `json:"type"`
	BlobCount             int64      `json:"blobCount"`
	TotalSizeInBytes      int64      `json:"totalSizeInBytes"`
	AvailableSpaceInBytes int64      `json:"availableSpaceInBytes"`
	SoftQuota             *SoftQuota `json:"softQuota,omitempty"`
}

// FileBlobStore is the configuration of a file system blob store
type FileBlobStore struct {
	Name      string     `json:"name,omitempty"`
	Path      string     `json:"path"`
	SoftQuota *SoftQuota `json:"softQuota,omitempty"`
}

// S3Bucket identifies the bucket backing an S3 blob store
type S3Bucket struct {
	Region     string `json:"region"`
	Name       string `json:"name"`
	Prefix     string `json:"prefix,omitempty"`
	Expiration int    `json:"expiration"`
}

// S3BucketSecurity holds the credentials used to access the bucket
type S3BucketSecurity struct {
	AccessKeyID     string `json:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`
	Role            string `json:"role,omitempty"`
	SessionToken    string `json:"sessionToken,omitempty"`
}

// S3AdvancedConnection overrides the S3 endpoint, for S3-compatible stores
type S3AdvancedConnection struct {
	Endpoint       string `json:"endpoint,omitempty"`
	ForcePathStyle bool   `json:"forcePathStyle"`
}

// S3BucketConfiguration groups the S3 specific settings
type S3BucketConfiguration struct {
	Bucket                   S3Bucket              `json:"bucket"`
	BucketSecurity           *S3BucketSecurity     `json:"bucketSecurity,omitempty"`
	AdvancedBucketConnection *S3AdvancedConnection `json:"advancedBucketConnection,omitempty"`
}

// S3BlobStore is the configuration of an S3 blob store
type S3BlobStore struct {
	Name                string                `json:"name"`
	SoftQuota           *SoftQuota            `json:"softQuota,omitempty"`
	BucketConfiguration S3BucketConfiguration `json:"bucketConfiguration"`
}

// QuotaStatus reports whether a blob store is within its soft quota
type QuotaStatus struct {
	IsViolation   bool   `json:"isViolation"`
	Message       string `json:"message"`
	BlobStoreName string `json:"blobStoreName"`
}

// Realm is a security realm known to the server
type Realm struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Status of a single file transfer
type Status string

const (
	StatusSuccess Status = "Success"
	StatusSkip    Status = "Skipped"
	StatusFail    Status = "Failed"
)

// FileStat records the outcome of transferring one file
type FileStat struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Status      Status `json:"status"`
	Size        int64  `json:"size,omitempty"`
	Error       string `json:"error,omitempty"`
}

// TransferStats summarises an upload or download run
type TransferStats struct {
	FileStats []FileStat `json:"files"`
}

// Add appends a file outcome
func (s *TransferStats) Add(stat FileStat) {
	s.FileStats = append(s.FileStats, stat)
}

// Count returns the number of files with the given status
func (s *TransferStats) Count(status Status) int {
	n := 0
	for _, f := range s.FileStats {
		if f.Status == status {
			n++
		}
	}
	return n
}
