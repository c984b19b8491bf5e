package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lgulliver/nexus3-cli/pkg/nexus/repository"
)

// NewRepositoryCmd creates the command group for managing repositories
func NewRepositoryCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repository",
		Aliases: []string{"repo"},
		Short:   "Manage repositories",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a repository",
	}
	for _, repoType := range repository.Types {
		create.AddCommand(newRepositoryCreateCmd(repoType, clientFn, outputFn))
	}

	cmd.AddCommand(
		newRepositoryListCmd(clientFn, outputFn),
		newRepositoryShowCmd(clientFn, outputFn),
		create,
		newRepositoryDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newRepositoryListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all repositories",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			repos, err := repository.NewCollection(client).List(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(repos))
			for i, r := range repos {
				rows[i] = []string{r.Name, r.Format, r.Type, r.URL}
			}
			return out.Print([]string{"NAME", "FORMAT", "TYPE", "URL"}, rows, repos)
		},
	}
}

func newRepositoryShowCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show the configuration of a repository",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}

			cfg, err := repository.NewCollection(client).RawConfiguration(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return outputFn().Data(cfg)
		},
	}
}

func newRepositoryDeleteCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"del", "rm"},
		Short:   "Delete a repository and all of its content",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			if err := repository.NewCollection(client).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Repository deleted: %s", args[0]))
			return nil
		},
	}
}

func newRepositoryCreateCmd(repoType repository.Type, clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	flags := &repositoryFlags{}

	use := string(repoType) + " RECIPE NAME"
	nargs := 2
	if repoType == repository.Proxy {
		use += " REMOTE_URL"
		nargs = 3
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Create a %s repository", repoType),
		Long: fmt.Sprintf("Create a %s repository. RECIPE is one of: %s",
			repoType, strings.Join(repository.Recipes(repoType), ", ")),
		Args: exactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			opts, err := flags.options(cmd)
			if err != nil {
				return err
			}
			if repoType == repository.Proxy {
				opts = append([]repository.Option{repository.WithRemoteURL(args[2])}, opts...)
			}

			repo, err := repository.New(args[0], repoType, args[1], opts...)
			if err != nil {
				return err
			}
			if err := repository.NewCollection(client).Create(cmd.Context(), repo); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Created repository: %s (%s)", repo.Name, repo.RecipeName()))
			return nil
		},
	}

	flags.register(cmd, repoType)
	return cmd
}

// repositoryFlags holds the option flags of the create commands. An option
// is only applied when one of its flags was given.
type repositoryFlags struct {
	online                      bool
	blobStoreName               string
	strictContentTypeValidation bool
	cleanupPolicy               string

	writePolicy string

	autoBlock        bool
	contentMaxAge    int
	metadataMaxAge   int
	negativeCache    bool
	negativeCacheTTL int
	remoteAuthType   string
	remoteUsername   string
	remotePassword   string
	ntlmHost         string
	ntlmDomain       string

	memberNames []string

	versionPolicy  string
	layoutPolicy   string
	depth          int
	deployPolicy   string
	distribution   string
	gpgKeypair     string
	passphrase     string
	flat           bool
	httpPort       int
	httpsPort      int
	v1Enabled      bool
	forceBasicAuth bool
	indexType      string
	indexURL       string
	rewriteURLs    bool
	queryCacheAge  int
}

func (f *repositoryFlags) register(cmd *cobra.Command, repoType repository.Type) {
	fs := cmd.Flags()

	fs.BoolVar(&f.online, "online", true, "Accept incoming requests")
	fs.StringVar(&f.blobStoreName, "blob-store-name", repository.DefaultBlobStoreName, "Blob store holding the content")
	fs.BoolVar(&f.strictContentTypeValidation, "strict-content", true, "Validate that uploaded content matches its MIME type")
	fs.StringVar(&f.cleanupPolicy, "cleanup-policy", "", "Cleanup policy to apply")

	switch repoType {
	case repository.Hosted:
		fs.StringVar(&f.writePolicy, "write-policy", repository.WritePolicyAllow, "One of "+strings.Join(repository.WritePolicies, ", "))
		fs.StringVar(&f.deployPolicy, "deploy-policy", repository.PolicyStrict, "yum deploy policy: STRICT or PERMISSIVE")
		fs.StringVar(&f.gpgKeypair, "gpg-keypair", "", "apt: file holding the ASCII armored signing keypair")
		fs.StringVar(&f.passphrase, "passphrase", "", "apt: passphrase of the signing keypair")
	case repository.Proxy:
		fs.BoolVar(&f.autoBlock, "auto-block", true, "Block the remote when it is unreachable")
		fs.IntVar(&f.contentMaxAge, "content-max-age", repository.DefaultMaxAge, "Maximum age of cached content, in minutes")
		fs.IntVar(&f.metadataMaxAge, "metadata-max-age", repository.DefaultMaxAge, "Maximum age of cached metadata, in minutes")
		fs.BoolVar(&f.negativeCache, "negative-cache", true, "Cache responses for content missing on the remote")
		fs.IntVar(&f.negativeCacheTTL, "negative-cache-ttl", repository.DefaultNegativeTTL, "Negative cache time to live, in minutes")
		fs.StringVar(&f.remoteAuthType, "remote-auth-type", repository.RemoteAuthUsername, "Remote authentication: username or ntlm")
		fs.StringVar(&f.remoteUsername, "remote-username", "", "Username for the remote")
		fs.StringVar(&f.remotePassword, "remote-password", "", "Password for the remote")
		fs.StringVar(&f.ntlmHost, "remote-ntlm-host", "", "NTLM host")
		fs.StringVar(&f.ntlmDomain, "remote-ntlm-domain", "", "NTLM domain")
		fs.BoolVar(&f.flat, "flat", false, "apt: the remote is a flat repository")
		fs.StringVar(&f.indexType, "index-type", repository.IndexTypeRegistry, "docker: one of "+strings.Join(repository.IndexTypes, ", "))
		fs.StringVar(&f.indexURL, "index-url", "", "docker: index URL, required with --index-type CUSTOM")
		fs.BoolVar(&f.rewriteURLs, "rewrite-package-urls", true, "bower: rewrite package URLs to point at this repository")
		fs.IntVar(&f.queryCacheAge, "query-cache-max-age", repository.DefaultQueryCacheAge, "nuget: query cache max age, in seconds")
	case repository.Group:
		fs.StringSliceVar(&f.memberNames, "member-names", nil, "Repositories in the group, in order")
	}

	fs.StringVar(&f.versionPolicy, "version-policy", repository.VersionPolicyRelease, "maven: one of "+strings.Join(repository.VersionPolicies, ", "))
	fs.StringVar(&f.layoutPolicy, "layout-policy", repository.PolicyPermissive, "maven: STRICT or PERMISSIVE")
	fs.IntVar(&f.depth, "depth", 0, "yum: repodata depth, 0 to 5")
	fs.StringVar(&f.distribution, "distribution", repository.DefaultDistribution, "apt: distribution")
	fs.IntVar(&f.httpPort, "http-port", 0, "docker: http connector port")
	fs.IntVar(&f.httpsPort, "https-port", 0, "docker: https connector port")
	fs.BoolVar(&f.v1Enabled, "v1-enabled", false, "docker: enable the v1 API")
	fs.BoolVar(&f.forceBasicAuth, "force-basic-auth", true, "docker: force basic authentication")
}

func (f *repositoryFlags) options(cmd *cobra.Command) ([]repository.Option, error) {
	changed := func(names ...string) bool {
		for _, n := range names {
			if cmd.Flags().Changed(n) {
				return true
			}
		}
		return false
	}

	var opts []repository.Option
	add := func(ok bool, opt repository.Option) {
		if ok {
			opts = append(opts, opt)
		}
	}

	add(changed("online"), repository.WithOnline(f.online))
	add(changed("blob-store-name"), repository.WithBlobStore(f.blobStoreName))
	add(changed("strict-content"), repository.WithStrictContentTypeValidation(f.strictContentTypeValidation))
	add(changed("cleanup-policy"), repository.WithCleanupPolicy(f.cleanupPolicy))

	add(changed("write-policy"), repository.WithWritePolicy(f.writePolicy))

	add(changed("auto-block"), repository.WithAutoBlock(f.autoBlock))
	add(changed("content-max-age", "metadata-max-age"), repository.WithMaxAge(f.contentMaxAge, f.metadataMaxAge))
	add(changed("negative-cache", "negative-cache-ttl"), repository.WithNegativeCache(f.negativeCache, f.negativeCacheTTL))
	add(changed("remote-auth-type", "remote-username", "remote-password"),
		repository.WithRemoteAuth(f.remoteAuthType, f.remoteUsername, f.remotePassword))
	add(changed("remote-ntlm-host", "remote-ntlm-domain"), repository.WithRemoteNTLM(f.ntlmHost, f.ntlmDomain))

	add(changed("member-names"), repository.WithMemberNames(f.memberNames...))

	add(changed("version-policy"), repository.WithVersionPolicy(f.versionPolicy))
	add(changed("layout-policy"), repository.WithLayoutPolicy(f.layoutPolicy))
	add(changed("depth"), repository.WithRepodataDepth(f.depth))
	add(changed("deploy-policy"), repository.WithDeployPolicy(f.deployPolicy))
	add(changed("distribution"), repository.WithDistribution(f.distribution))
	add(changed("flat"), repository.WithFlat(f.flat))
	add(changed("http-port", "https-port"), repository.WithDockerConnectors(f.httpPort, f.httpsPort))
	add(changed("v1-enabled"), repository.WithDockerV1(f.v1Enabled))
	add(changed("force-basic-auth"), repository.WithForceBasicAuth(f.forceBasicAuth))
	add(changed("index-type", "index-url"), repository.WithDockerIndex(f.indexType, f.indexURL))
	add(changed("rewrite-package-urls"), repository.WithRewritePackageURLs(f.rewriteURLs))
	add(changed("query-cache-max-age"), repository.WithQueryCacheMaxAge(f.queryCacheAge))

	if changed("gpg-keypair", "passphrase") {
		keypair := ""
		if f.gpgKeypair != "" {
			data, err := os.ReadFile(f.gpgKeypair)
			if err != nil {
				return nil, fmt.Errorf("%w: failed to read gpg keypair: %w", ErrUsage, err)
			}
			keypair = string(data)
		}
		opts = append(opts, repository.WithSigningKey(keypair, f.passphrase))
	}

	return opts, nil
}
