package repository

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/lgulliver/nexus3-cli/pkg/utils"
)

// CleanupSetMinVersion is the first server release that accepts a list of
// cleanup policy names instead of a single name
const CleanupSetMinVersion = "3.19.0"

var cleanupSetMinVersion = semver.MustParse(CleanupSetMinVersion)

// Configuration is the payload the repository scripts exchange with the server
type Configuration struct {
	Name       string     `json:"name"`
	Online     bool       `json:"online"`
	RecipeName string     `json:"recipeName"`
	Attributes Attributes `json:"attributes"`
}

// Attributes holds the recipe and type specific blocks of a Configuration
type Attributes struct {
	Storage       Storage           `json:"storage"`
	Cleanup       *Cleanup          `json:"cleanup,omitempty"`
	Proxy         *ProxyAttributes  `json:"proxy,omitempty"`
	HTTPClient    *HTTPClient       `json:"httpclient,omitempty"`
	NegativeCache *NegativeCache    `json:"negativeCache,omitempty"`
	Group         *GroupAttributes  `json:"group,omitempty"`
	Maven         *MavenAttributes  `json:"maven,omitempty"`
	Yum           *YumAttributes    `json:"yum,omitempty"`
	Apt           *AptAttributes    `json:"apt,omitempty"`
	AptSigning    *AptSigning       `json:"aptSigning,omitempty"`
	Docker        *DockerAttributes `json:"docker,omitempty"`
	DockerProxy   *DockerProxy      `json:"dockerProxy,omitempty"`
	Bower         *BowerAttributes  `json:"bower,omitempty"`
	NugetProxy    *NugetProxy       `json:"nugetProxy,omitempty"`
}

// Storage is the storage block every repository carries
type Storage struct {
	BlobStoreName               string `json:"blobStoreName"`
	StrictContentTypeValidation bool   `json:"strictContentTypeValidation"`
	WritePolicy                 string `json:"writePolicy,omitempty"`
}

// Cleanup carries the cleanup policy names. Servers older than
// CleanupSetMinVersion expect policyName to be a string.
type Cleanup struct {
	PolicyNames []string
	// Single encodes policyName as a string
	Single bool
}

// MarshalJSON encodes policyName as a list, or a string when Single is set
func (c Cleanup) MarshalJSON() ([]byte, error) {
	if c.Single {
		name := ""
		if len(c.PolicyNames) > 0 {
			name = c.PolicyNames[0]
		}
		return json.Marshal(map[string]string{"policyName": name})
	}
	names := c.PolicyNames
	if names == nil {
		names = []string{}
	}
	return json.Marshal(map[string][]string{"policyName": names})
}

// UnmarshalJSON accepts policyName as a list or a single string
func (c *Cleanup) UnmarshalJSON(data []byte) error {
	var raw struct {
		PolicyName json.RawMessage `json:"policyName"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	value := bytes.TrimSpace(raw.PolicyName)
	switch {
	case len(value) == 0 || bytes.Equal(value, []byte("null")):
		*c = Cleanup{}
	case value[0] == '[':
		var names []string
		if err := json.Unmarshal(value, &names); err != nil {
			return fmt.Errorf("invalid cleanup policy names: %w", err)
		}
		*c = Cleanup{PolicyNames: names}
	default:
		var name string
		if err := json.Unmarshal(value, &name); err != nil {
			return fmt.Errorf("invalid cleanup policy name: %w", err)
		}
		*c = Cleanup{PolicyNames: []string{name}, Single: true}
	}
	return nil
}

// ProxyAttributes describe the remote of a proxy repository
type ProxyAttributes struct {
	RemoteURL      string `json:"remoteUrl"`
	ContentMaxAge  int    `json:"contentMaxAge"`
	MetadataMaxAge int    `json:"metadataMaxAge"`
}

// HTTPClient controls how a proxy repository talks to its remote
type HTTPClient struct {
	Blocked        bool            `json:"blocked"`
	AutoBlock      bool            `json:"autoBlock"`
	Authentication *Authentication `json:"authentication,omitempty"`
}

// Authentication holds the remote credentials, username or ntlm
type Authentication struct {
	Type       string `json:"type"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	NTLMHost   string `json:"ntlmHost,omitempty"`
	NTLMDomain string `json:"ntlmDomain,omitempty"`
}

// NegativeCache caches not found responses from the remote
type NegativeCache struct {
	Enabled    bool `json:"enabled"`
	TimeToLive int  `json:"timeToLive"`
}

// GroupAttributes lists the members of a group repository in order
type GroupAttributes struct {
	MemberNames []string `json:"memberNames"`
}

// MavenAttributes holds the maven version and layout policies
type MavenAttributes struct {
	VersionPolicy string `json:"versionPolicy"`
	LayoutPolicy  string `json:"layoutPolicy"`
}

// YumAttributes holds the yum repodata depth and deploy policy
type YumAttributes struct {
	RepodataDepth int    `json:"repodataDepth"`
	DeployPolicy  string `json:"deployPolicy,omitempty"`
}

// AptAttributes holds the apt distribution and the flat remote flag
type AptAttributes struct {
	Distribution string `json:"distribution"`
	Flat         *bool  `json:"flat,omitempty"`
}

// AptSigning holds the keypair used to sign apt hosted metadata
type AptSigning struct {
	Keypair    string `json:"keypair"`
	Passphrase string `json:"passphrase"`
}

// DockerAttributes holds the docker connectors and API options
type DockerAttributes struct {
	HTTPPort       *int `json:"httpPort,omitempty"`
	HTTPSPort      *int `json:"httpsPort,omitempty"`
	V1Enabled      bool `json:"v1Enabled"`
	ForceBasicAuth bool `json:"forceBasicAuth"`
}

// DockerProxy selects the index a docker proxy resolves images with
type DockerProxy struct {
	IndexType string `json:"indexType"`
	IndexURL  string `json:"indexUrl,omitempty"`
}

// BowerAttributes holds the bower proxy URL rewriting flag
type BowerAttributes struct {
	RewritePackageURLs bool `json:"rewritePackageUrls"`
}

// NugetProxy holds the query cache max age of a nuget proxy, in seconds
type NugetProxy struct {
	QueryCacheItemMaxAge int `json:"queryCacheItemMaxAge"`
}

// Configuration builds the server payload for r. serverVersion selects the
// shape of the cleanup block; nil means the version is unknown and the
// current shape is used.
func (r *Repository) Configuration(serverVersion *semver.Version) *Configuration {
	cfg := &Configuration{
		Name:       r.Name,
		Online:     r.Online,
		RecipeName: r.RecipeName(),
		Attributes: Attributes{
			Storage: Storage{
				BlobStoreName:               r.BlobStoreName,
				StrictContentTypeValidation: r.StrictContentTypeValidation,
			},
		},
	}
	attrs := &cfg.Attributes

	if r.CleanupPolicy != "" {
		attrs.Cleanup = &Cleanup{
			PolicyNames: []string{r.CleanupPolicy},
			Single:      !utils.AtLeast(serverVersion, cleanupSetMinVersion),
		}
	}

	switch r.Kind.Type {
	case Hosted:
		attrs.Storage.WritePolicy = r.WritePolicy
	case Proxy:
		p := r.Proxy
		attrs.Proxy = &ProxyAttributes{
			RemoteURL:      p.RemoteURL,
			ContentMaxAge:  p.ContentMaxAge,
			MetadataMaxAge: p.MetadataMaxAge,
		}
		attrs.HTTPClient = &HTTPClient{AutoBlock: p.AutoBlock}
		if p.RemoteAuthType != "" {
			attrs.HTTPClient.Authentication = &Authentication{
				Type:       p.RemoteAuthType,
				Username:   p.RemoteUsername,
				Password:   p.RemotePassword,
				NTLMHost:   p.RemoteNTLMHost,
				NTLMDomain: p.RemoteNTLMDomain,
			}
		}
		attrs.NegativeCache = &NegativeCache{Enabled: p.NegativeCache, TimeToLive: p.NegativeCacheTTL}
	case Group:
		members := r.MemberNames
		if members == nil {
			members = []string{}
		}
		attrs.Group = &GroupAttributes{MemberNames: members}
	}

	if r.Maven != nil {
		attrs.Maven = &MavenAttributes{VersionPolicy: r.Maven.VersionPolicy, LayoutPolicy: r.Maven.LayoutPolicy}
	}
	if r.Yum != nil {
		attrs.Yum = &YumAttributes{RepodataDepth: r.Yum.RepodataDepth, DeployPolicy: r.Yum.DeployPolicy}
	}
	if r.Apt != nil {
		attrs.Apt = &AptAttributes{Distribution: r.Apt.Distribution}
		switch r.Kind.Type {
		case Hosted:
			attrs.AptSigning = &AptSigning{Keypair: r.Apt.Keypair, Passphrase: r.Apt.Passphrase}
		case Proxy:
			flat := r.Apt.Flat
			attrs.Apt.Flat = &flat
		}
	}
	if r.Docker != nil {
		attrs.Docker = &DockerAttributes{
			HTTPPort:       r.Docker.HTTPPort,
			HTTPSPort:      r.Docker.HTTPSPort,
			V1Enabled:      r.Docker.V1Enabled,
			ForceBasicAuth: r.Docker.ForceBasicAuth,
		}
		if r.Kind.Type == Proxy {
			attrs.DockerProxy = &DockerProxy{IndexType: r.Docker.IndexType, IndexURL: r.Docker.IndexURL}
		}
	}
	if r.Kind.Recipe == "bower" && r.Kind.Type == Proxy {
		attrs.Bower = &BowerAttributes{RewritePackageURLs: r.RewritePackageURLs}
	}
	if r.Kind.Recipe == "nuget" && r.Kind.Type == Proxy {
		attrs.NugetProxy = &NugetProxy{QueryCacheItemMaxAge: r.QueryCacheMaxAge}
	}

	return cfg
}

// FromConfiguration rebuilds a Repository from a configuration read back
// from the server
func FromConfiguration(cfg *Configuration) (*Repository, error) {
	kind, err := KindFromRecipeName(cfg.RecipeName)
	if err != nil {
		return nil, err
	}

	r := newWithDefaults(cfg.Name, kind)
	attrs := cfg.Attributes

	r.Online = cfg.Online
	r.BlobStoreName = attrs.Storage.BlobStoreName
	r.StrictContentTypeValidation = attrs.Storage.StrictContentTypeValidation
	if attrs.Cleanup != nil && len(attrs.Cleanup.PolicyNames) > 0 {
		r.CleanupPolicy = attrs.Cleanup.PolicyNames[0]
	}
	if attrs.Storage.WritePolicy != "" && kind.Type == Hosted {
		r.WritePolicy = attrs.Storage.WritePolicy
	}

	if r.Proxy != nil {
		if attrs.Proxy != nil {
			r.Proxy.RemoteURL = attrs.Proxy.RemoteURL
			r.Proxy.ContentMaxAge = attrs.Proxy.ContentMaxAge
			r.Proxy.MetadataMaxAge = attrs.Proxy.MetadataMaxAge
		}
		if attrs.HTTPClient != nil {
			r.Proxy.AutoBlock = attrs.HTTPClient.AutoBlock
			if auth := attrs.HTTPClient.Authentication; auth != nil {
				r.Proxy.RemoteAuthType = auth.Type
				r.Proxy.RemoteUsername = auth.Username
				r.Proxy.RemotePassword = auth.Password
				r.Proxy.RemoteNTLMHost = auth.NTLMHost
				r.Proxy.RemoteNTLMDomain = auth.NTLMDomain
			}
		}
		if attrs.NegativeCache != nil {
			r.Proxy.NegativeCache = attrs.NegativeCache.Enabled
			r.Proxy.NegativeCacheTTL = attrs.NegativeCache.TimeToLive
		}
	}
	if attrs.Group != nil {
		r.MemberNames = attrs.Group.MemberNames
	}
	if r.Maven != nil && attrs.Maven != nil {
		r.Maven.VersionPolicy = attrs.Maven.VersionPolicy
		r.Maven.LayoutPolicy = attrs.Maven.LayoutPolicy
	}
	if r.Yum != nil && attrs.Yum != nil {
		r.Yum.RepodataDepth = attrs.Yum.RepodataDepth
		r.Yum.DeployPolicy = attrs.Yum.DeployPolicy
	}
	if r.Apt != nil {
		if attrs.Apt != nil {
			r.Apt.Distribution = attrs.Apt.Distribution
			if attrs.Apt.Flat != nil {
				r.Apt.Flat = *attrs.Apt.Flat
			}
		}
		if attrs.AptSigning != nil {
			r.Apt.Keypair = attrs.AptSigning.Keypair
			r.Apt.Passphrase = attrs.AptSigning.Passphrase
		}
	}
	if r.Docker != nil {
		if attrs.Docker != nil {
			r.Docker.HTTPPort = attrs.Docker.HTTPPort
			r.Docker.HTTPSPort = attrs.Docker.HTTPSPort
			r.Docker.V1Enabled = attrs.Docker.V1Enabled
			r.Docker.ForceBasicAuth = attrs.Docker.ForceBasicAuth
		}
		if attrs.DockerProxy != nil {
			r.Docker.IndexType = attrs.DockerProxy.IndexType
			r.Docker.IndexURL = attrs.DockerProxy.IndexURL
		}
	}
	if attrs.Bower != nil {
		r.RewritePackageURLs = attrs.Bower.RewritePackageURLs
	}
	if attrs.NugetProxy != nil {
		r.QueryCacheMaxAge = attrs.NugetProxy.QueryCacheItemMaxAge
	}

	return r, nil
}
