package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lgulliver/nexus3-cli/pkg/nexus/blobstore"
	"github.com/lgulliver/nexus3-cli/pkg/types"
	"github.com/lgulliver/nexus3-cli/pkg/utils"
)

// NewBlobStoreCmd creates the command group for blob stores
func NewBlobStoreCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "blobstore",
		Aliases: []string{"blob"},
		Short:   "Manage blob stores",
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a blob store",
	}
	create.AddCommand(
		newBlobStoreCreateFileCmd(clientFn, outputFn),
		newBlobStoreCreateS3Cmd(clientFn, outputFn),
	)

	cmd.AddCommand(
		newBlobStoreListCmd(clientFn, outputFn),
		newBlobStoreShowCmd(clientFn, outputFn),
		create,
		newBlobStoreDeleteCmd(clientFn, outputFn),
		newBlobStoreQuotaCmd(clientFn, outputFn),
	)

	return cmd
}

func newBlobStoreListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all blob stores",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			stores, err := blobstore.NewClient(client).List(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(stores))
			for i, s := range stores {
				quota := ""
				if s.SoftQuota != nil {
					quota = s.SoftQuota.Type + ":" + utils.FormatBytes(s.SoftQuota.Limit)
				}
				rows[i] = []string{
					s.Name,
					s.Type,
					strconv.FormatInt(s.BlobCount, 10),
					utils.FormatBytes(s.TotalSizeInBytes),
					utils.FormatBytes(s.AvailableSpaceInBytes),
					quota,
				}
			}
			return out.Print([]string{"NAME", "TYPE", "BLOBS", "SIZE", "AVAILABLE", "QUOTA"}, rows, stores)
		},
	}
}

func newBlobStoreShowCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show TYPE NAME",
		Short: "Show the configuration of a blob store (TYPE is file or s3)",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}

			details, err := blobstore.NewClient(client).Show(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return outputFn().Data(details)
		},
	}
}

type quotaFlags struct {
	quotaType  string
	quotaLimit int64
}

func (q *quotaFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.quotaType, "quota-type", "", "Soft quota type: "+blobstore.QuotaSpaceRemaining+" or "+blobstore.QuotaSpaceUsed)
	cmd.Flags().Int64Var(&q.quotaLimit, "quota-limit", 0, "Soft quota limit, in megabytes")
}

func (q *quotaFlags) softQuota() (*types.SoftQuota, error) {
	if q.quotaType == "" && q.quotaLimit == 0 {
		return nil, nil
	}
	return blobstore.NewSoftQuota(q.quotaType, q.quotaLimit)
}

func newBlobStoreCreateFileCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var path string
	quota := &quotaFlags{}

	cmd := &cobra.Command{
		Use:   "file NAME",
		Short: "Create a file system blob store",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			softQuota, err := quota.softQuota()
			if err != nil {
				return err
			}

			store := types.FileBlobStore{Name: args[0], Path: path, SoftQuota: softQuota}
			if err := blobstore.NewClient(client).CreateFile(cmd.Context(), store); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Blob store created: %s", args[0]))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Directory of the blob store, relative to the server data directory; defaults to NAME")
	quota.register(cmd)

	return cmd
}

func newBlobStoreCreateS3Cmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var bucket types.S3Bucket
	var security types.S3BucketSecurity
	var advanced types.S3AdvancedConnection
	quota := &quotaFlags{}

	cmd := &cobra.Command{
		Use:   "s3 NAME",
		Short: "Create an S3 blob store",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			softQuota, err := quota.softQuota()
			if err != nil {
				return err
			}

			store := types.S3BlobStore{
				Name:                args[0],
				SoftQuota:           softQuota,
				BucketConfiguration: types.S3BucketConfiguration{Bucket: bucket},
			}
			if security != (types.S3BucketSecurity{}) {
				store.BucketConfiguration.BucketSecurity = &security
			}
			if advanced != (types.S3AdvancedConnection{}) {
				store.BucketConfiguration.AdvancedBucketConnection = &advanced
			}

			if err := blobstore.NewClient(client).CreateS3(cmd.Context(), store); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Blob store created: %s", args[0]))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&bucket.Name, "bucket", "", "Bucket name (required)")
	fs.StringVar(&bucket.Region, "region", "", "Bucket region (required)")
	fs.StringVar(&bucket.Prefix, "prefix", "", "Key prefix inside the bucket")
	fs.IntVar(&bucket.Expiration, "expiration", 3, "Days before deleted blobs are removed from the bucket")
	fs.StringVar(&security.AccessKeyID, "access-key-id", "", "Access key id")
	fs.StringVar(&security.SecretAccessKey, "secret-access-key", "", "Secret access key")
	fs.StringVar(&security.Role, "role", "", "IAM role to assume")
	fs.StringVar(&security.SessionToken, "session-token", "", "Session token")
	fs.StringVar(&advanced.Endpoint, "endpoint", "", "Endpoint of an S3 compatible service")
	fs.BoolVar(&advanced.ForcePathStyle, "force-path-style", false, "Use path style bucket access")
	quota.register(cmd)

	return cmd
}

func newBlobStoreDeleteCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"del", "rm"},
		Short:   "Delete a blob store",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			if err := blobstore.NewClient(client).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Blob store deleted: %s", args[0]))
			return nil
		},
	}
}

func newBlobStoreQuotaCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "quota NAME",
		Short: "Show whether a blob store violates its soft quota",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			status, err := blobstore.NewClient(client).QuotaStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return out.Print(
				[]string{"NAME", "VIOLATION", "MESSAGE"},
				[][]string{{status.BlobStoreName, strconv.FormatBool(status.IsViolation), status.Message}},
				status,
			)
		},
	}
}
