// Package repository builds repository configurations for the supported
// recipes and manages repositories and their content on the server.
package repository

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrUnsupportedRecipe  = errors.New("unsupported recipe")
	ErrInvalidOption      = errors.New("invalid repository option")
	ErrUploadNotSupported = errors.New("upload not supported")
	ErrCreateRepository   = errors.New("failed to create repository")
)

// Defaults and accepted option values
const (
	DefaultBlobStoreName  = "default"
	DefaultMaxAge         = 1440
	DefaultNegativeTTL    = 1440
	DefaultDistribution   = "bionic"
	DefaultQueryCacheAge  = 3600
	MaxRepodataDepth      = 5
	RemoteAuthUsername    = "username"
	RemoteAuthNTLM        = "ntlm"
	WritePolicyAllow      = "ALLOW"
	WritePolicyAllowOnce  = "ALLOW_ONCE"
	WritePolicyDeny       = "DENY"
	PolicyStrict          = "STRICT"
	PolicyPermissive      = "PERMISSIVE"
	VersionPolicyRelease  = "RELEASE"
	VersionPolicySnapshot = "SNAPSHOT"
	VersionPolicyMixed    = "MIXED"
	IndexTypeRegistry     = "REGISTRY"
	IndexTypeHub          = "HUB"
	IndexTypeCustom       = "CUSTOM"
)

var (
	WritePolicies   = []string{WritePolicyAllow, WritePolicyAllowOnce, WritePolicyDeny}
	LayoutPolicies  = []string{PolicyStrict, PolicyPermissive}
	DeployPolicies  = []string{PolicyStrict, PolicyPermissive}
	VersionPolicies = []string{VersionPolicyRelease, VersionPolicySnapshot, VersionPolicyMixed}
	IndexTypes      = []string{IndexTypeRegistry, IndexTypeHub, IndexTypeCustom}
	RemoteAuthTypes = []string{RemoteAuthUsername, RemoteAuthNTLM}
)

// ProxySettings configure how a proxy repository reaches its remote
type ProxySettings struct {
	RemoteURL        string
	AutoBlock        bool
	ContentMaxAge    int
	MetadataMaxAge   int
	NegativeCache    bool
	NegativeCacheTTL int
	RemoteAuthType   string
	RemoteUsername   string
	RemotePassword   string
	RemoteNTLMHost   string
	RemoteNTLMDomain string
}

// MavenSettings apply to maven repositories
type MavenSettings struct {
	VersionPolicy string
	LayoutPolicy  string
}

// YumSettings apply to yum repositories
type YumSettings struct {
	RepodataDepth int
	// DeployPolicy is only sent for hosted repositories
	DeployPolicy string
}

// AptSettings apply to apt repositories
type AptSettings struct {
	Distribution string
	Keypair      string
	Passphrase   string
	Flat         bool
}

// DockerSettings apply to docker repositories
type DockerSettings struct {
	HTTPPort       *int
	HTTPSPort      *int
	V1Enabled      bool
	ForceBasicAuth bool
	IndexType      string
	IndexURL       string
}

// Repository is the client side model of a repository
type Repository struct {
	Name                        string
	Kind                        Kind
	Online                      bool
	BlobStoreName               string
	StrictContentTypeValidation bool
	CleanupPolicy               string

	// hosted
	WritePolicy string
	// proxy
	Proxy *ProxySettings
	// group
	MemberNames []string

	Maven              *MavenSettings
	Yum                *YumSettings
	Apt                *AptSettings
	Docker             *DockerSettings
	RewritePackageURLs bool
	QueryCacheMaxAge   int
}

// Option configures a Repository built by New
type Option func(*Repository) error

// New builds a repository of the given recipe and type, filling in the
// server defaults before applying opts
func New(recipe string, repoType Type, name string, opts ...Option) (*Repository, error) {
	kind, err := LookupKind(recipe, repoType)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidOption)
	}

	r := newWithDefaults(name, kind)
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func newWithDefaults(name string, kind Kind) *Repository {
	r := &Repository{
		Name:                        name,
		Kind:                        kind,
		Online:                      true,
		BlobStoreName:               DefaultBlobStoreName,
		StrictContentTypeValidation: true,
	}

	switch kind.Type {
	case Hosted:
		r.WritePolicy = WritePolicyAllow
	case Proxy:
		r.Proxy = &ProxySettings{
			AutoBlock:        true,
			ContentMaxAge:    DefaultMaxAge,
			MetadataMaxAge:   DefaultMaxAge,
			NegativeCache:    true,
			NegativeCacheTTL: DefaultNegativeTTL,
		}
	}

	switch kind.Recipe {
	case "maven":
		r.Maven = &MavenSettings{VersionPolicy: VersionPolicyRelease, LayoutPolicy: PolicyPermissive}
	case "yum":
		r.Yum = &YumSettings{}
		if kind.Type == Hosted {
			r.Yum.DeployPolicy = PolicyStrict
		}
	case "apt":
		r.Apt = &AptSettings{Distribution: DefaultDistribution}
	case "docker":
		r.Docker = &DockerSettings{ForceBasicAuth: true}
		if kind.Type == Proxy {
			r.Docker.IndexType = IndexTypeRegistry
		}
	case "bower":
		r.RewritePackageURLs = kind.Type == Proxy
	case "nuget":
		if kind.Type == Proxy {
			r.QueryCacheMaxAge = DefaultQueryCacheAge
		}
	}
	return r
}

// Recipe returns the recipe of the repository, e.g. maven
func (r *Repository) Recipe() string {
	return r.Kind.Recipe
}

// Type returns the repository type
func (r *Repository) Type() Type {
	return r.Kind.Type
}

// RecipeName returns the server recipe name, e.g. maven2-hosted
func (r *Repository) RecipeName() string {
	return r.Kind.RecipeName()
}

// SupportsUpload reports whether files can be uploaded to the repository
func (r *Repository) SupportsUpload() bool {
	return r.Kind.Type == Hosted && r.Kind.Upload != UploadNone
}

// Validate checks the settings that cannot be checked option by option
func (r *Repository) Validate() error {
	if r.Proxy != nil {
		if r.Proxy.RemoteURL == "" {
			return fmt.Errorf("%w: remote URL is required for proxy repositories", ErrInvalidOption)
		}
		u, err := url.Parse(r.Proxy.RemoteURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: invalid remote URL %q", ErrInvalidOption, r.Proxy.RemoteURL)
		}
		if r.Proxy.RemoteAuthType != "" && r.Proxy.RemoteUsername == "" {
			return fmt.Errorf("%w: remote username is required for %s authentication", ErrInvalidOption, r.Proxy.RemoteAuthType)
		}
	}
	if r.Docker != nil && r.Docker.IndexType == IndexTypeCustom && r.Docker.IndexURL == "" {
		return fmt.Errorf("%w: index URL is required for a %s index", ErrInvalidOption, IndexTypeCustom)
	}
	return nil
}

func (r *Repository) require(option string, ok bool) error {
	if !ok {
		return fmt.Errorf("%w: %s does not apply to %s repositories", ErrInvalidOption, option, r.RecipeName())
	}
	return nil
}

func oneOf(option, value string, allowed []string) (string, error) {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %s must be one of %s, got %q", ErrInvalidOption, option, strings.Join(allowed, ", "), value)
}

// WithOnline sets whether the repository accepts requests
func WithOnline(online bool) Option {
	return func(r *Repository) error {
		r.Online = online
		return nil
	}
}

// WithBlobStore sets the blob store holding the repository content
func WithBlobStore(name string) Option {
	return func(r *Repository) error {
		if name == "" {
			return fmt.Errorf("%w: blob store name cannot be empty", ErrInvalidOption)
		}
		r.BlobStoreName = name
		return nil
	}
}

// WithStrictContentTypeValidation toggles MIME type validation
func WithStrictContentTypeValidation(strict bool) Option {
	return func(r *Repository) error {
		r.StrictContentTypeValidation = strict
		return nil
	}
}

// WithCleanupPolicy attaches a cleanup policy
func WithCleanupPolicy(name string) Option {
	return func(r *Repository) error {
		r.CleanupPolicy = name
		return nil
	}
}

// WithWritePolicy sets the write policy of a hosted repository
func WithWritePolicy(policy string) Option {
	return func(r *Repository) error {
		if err := r.require("write policy", r.Kind.Type == Hosted); err != nil {
			return err
		}
		p, err := oneOf("write policy", policy, WritePolicies)
		if err != nil {
			return err
		}
		r.WritePolicy = p
		return nil
	}
}

// WithRemoteURL sets the remote of a proxy repository
func WithRemoteURL(remote string) Option {
	return func(r *Repository) error {
		if err := r.require("remote URL", r.Proxy != nil); err != nil {
			return err
		}
		r.Proxy.RemoteURL = remote
		return nil
	}
}

// WithAutoBlock toggles blocking of unreachable remotes
func WithAutoBlock(autoBlock bool) Option {
	return func(r *Repository) error {
		if err := r.require("auto block", r.Proxy != nil); err != nil {
			return err
		}
		r.Proxy.AutoBlock = autoBlock
		return nil
	}
}

// WithMaxAge sets the content and metadata max age, in minutes
func WithMaxAge(contentMaxAge, metadataMaxAge int) Option {
	return func(r *Repository) error {
		if err := r.require("max age", r.Proxy != nil); err != nil {
			return err
		}
		if contentMaxAge < -1 || metadataMaxAge < -1 {
			return fmt.Errorf("%w: max age cannot be lower than -1", ErrInvalidOption)
		}
		r.Proxy.ContentMaxAge = contentMaxAge
		r.Proxy.MetadataMaxAge = metadataMaxAge
		return nil
	}
}

// WithNegativeCache configures caching of missing remote content
func WithNegativeCache(enabled bool, ttl int) Option {
	return func(r *Repository) error {
		if err := r.require("negative cache", r.Proxy != nil); err != nil {
			return err
		}
		if ttl < 0 {
			return fmt.Errorf("%w: negative cache TTL cannot be negative", ErrInvalidOption)
		}
		r.Proxy.NegativeCache = enabled
		r.Proxy.NegativeCacheTTL = ttl
		return nil
	}
}

// WithRemoteAuth sets the credentials used against the remote
func WithRemoteAuth(authType, username, password string) Option {
	return func(r *Repository) error {
		if err := r.require("remote authentication", r.Proxy != nil); err != nil {
			return err
		}
		t, err := oneOf("remote auth type", authType, RemoteAuthTypes)
		if err != nil {
			return err
		}
		r.Proxy.RemoteAuthType = t
		r.Proxy.RemoteUsername = username
		r.Proxy.RemotePassword = password
		return nil
	}
}

// WithRemoteNTLM sets the NTLM host and domain for ntlm authentication
func WithRemoteNTLM(host, domain string) Option {
	return func(r *Repository) error {
		if err := r.require("NTLM settings", r.Proxy != nil); err != nil {
			return err
		}
		r.Proxy.RemoteNTLMHost = host
		r.Proxy.RemoteNTLMDomain = domain
		return nil
	}
}

// WithMemberNames sets the members of a group repository
func WithMemberNames(names ...string) Option {
	return func(r *Repository) error {
		if err := r.require("member names", r.Kind.Type == Group); err != nil {
			return err
		}
		r.MemberNames = append([]string(nil), names...)
		return nil
	}
}

// WithVersionPolicy sets the maven version policy
func WithVersionPolicy(policy string) Option {
	return func(r *Repository) error {
		if err := r.require("version policy", r.Maven != nil); err != nil {
			return err
		}
		p, err := oneOf("version policy", policy, VersionPolicies)
		if err != nil {
			return err
		}
		r.Maven.VersionPolicy = p
		return nil
	}
}

// WithLayoutPolicy sets the maven layout policy
func WithLayoutPolicy(policy string) Option {
	return func(r *Repository) error {
		if err := r.require("layout policy", r.Maven != nil); err != nil {
			return err
		}
		p, err := oneOf("layout policy", policy, LayoutPolicies)
		if err != nil {
			return err
		}
		r.Maven.LayoutPolicy = p
		return nil
	}
}

// WithRepodataDepth sets the yum repodata depth
func WithRepodataDepth(depth int) Option {
	return func(r *Repository) error {
		if err := r.require("repodata depth", r.Yum != nil); err != nil {
			return err
		}
		if depth < 0 || depth > MaxRepodataDepth {
			return fmt.Errorf("%w: repodata depth must be between 0 and %d, got %d", ErrInvalidOption, MaxRepodataDepth, depth)
		}
		r.Yum.RepodataDepth = depth
		return nil
	}
}

// WithDeployPolicy sets the yum deploy policy of a hosted repository
func WithDeployPolicy(policy string) Option {
	return func(r *Repository) error {
		if err := r.require("deploy policy", r.Yum != nil && r.Kind.Type == Hosted); err != nil {
			return err
		}
		p, err := oneOf("deploy policy", policy, DeployPolicies)
		if err != nil {
			return err
		}
		r.Yum.DeployPolicy = p
		return nil
	}
}

// WithDistribution sets the apt distribution
func WithDistribution(distribution string) Option {
	return func(r *Repository) error {
		if err := r.require("distribution", r.Apt != nil); err != nil {
			return err
		}
		r.Apt.Distribution = distribution
		return nil
	}
}

// WithSigningKey sets the GPG keypair and passphrase of a hosted apt repository
func WithSigningKey(keypair, passphrase string) Option {
	return func(r *Repository) error {
		if err := r.require("signing key", r.Apt != nil && r.Kind.Type == Hosted); err != nil {
			return err
		}
		r.Apt.Keypair = keypair
		r.Apt.Passphrase = passphrase
		return nil
	}
}

// WithFlat marks an apt proxy remote as a flat repository
func WithFlat(flat bool) Option {
	return func(r *Repository) error {
		if err := r.require("flat", r.Apt != nil && r.Kind.Type == Proxy); err != nil {
			return err
		}
		r.Apt.Flat = flat
		return nil
	}
}

// WithDockerConnectors sets the docker http and https connector ports; zero
// leaves a connector disabled
func WithDockerConnectors(httpPort, httpsPort int) Option {
	return func(r *Repository) error {
		if err := r.require("docker connectors", r.Docker != nil); err != nil {
			return err
		}
		for _, p := range []int{httpPort, httpsPort} {
			if p < 0 || p > 65535 {
				return fmt.Errorf("%w: invalid port %d", ErrInvalidOption, p)
			}
		}
		r.Docker.HTTPPort = portPtr(httpPort)
		r.Docker.HTTPSPort = portPtr(httpsPort)
		return nil
	}
}

func portPtr(p int) *int {
	if p == 0 {
		return nil
	}
	return &p
}

// WithDockerV1 toggles the docker v1 API
func WithDockerV1(enabled bool) Option {
	return func(r *Repository) error {
		if err := r.require("docker v1", r.Docker != nil); err != nil {
			return err
		}
		r.Docker.V1Enabled = enabled
		return nil
	}
}

// WithForceBasicAuth toggles docker basic authentication
func WithForceBasicAuth(force bool) Option {
	return func(r *Repository) error {
		if err := r.require("force basic auth", r.Docker != nil); err != nil {
			return err
		}
		r.Docker.ForceBasicAuth = force
		return nil
	}
}

// WithDockerIndex sets the index of a docker proxy
func WithDockerIndex(indexType, indexURL string) Option {
	return func(r *Repository) error {
		if err := r.require("docker index", r.Docker != nil && r.Kind.Type == Proxy); err != nil {
			return err
		}
		t, err := oneOf("index type", indexType, IndexTypes)
		if err != nil {
			return err
		}
		r.Docker.IndexType = t
		r.Docker.IndexURL = indexURL
		return nil
	}
}

// WithRewritePackageURLs toggles bower package URL rewriting
func WithRewritePackageURLs(rewrite bool) Option {
	return func(r *Repository) error {
		if err := r.require("rewrite package URLs", r.Kind.Recipe == "bower" && r.Kind.Type == Proxy); err != nil {
			return err
		}
		r.RewritePackageURLs = rewrite
		return nil
	}
}

// WithQueryCacheMaxAge sets the nuget proxy query cache max age, in seconds
func WithQueryCacheMaxAge(seconds int) Option {
	return func(r *Repository) error {
		if err := r.require("query cache max age", r.Kind.Recipe == "nuget" && r.Kind.Type == Proxy); err != nil {
			return err
		}
		if seconds < 0 {
			return fmt.Errorf("%w: query cache max age cannot be negative", ErrInvalidOption)
		}
		r.QueryCacheMaxAge = seconds
		return nil
	}
}
