package bootstrap

import (
	"context"
	"fmt"

	"alcyxob/file-grants/internal/config"
	"alcyxob/file-grants/internal/logger"
	"alcyxob/file-grants/internal/repository"
	"alcyxob/file-grants/internal/repository/dynamo"
	"alcyxob/file-grants/internal/repository/mongo"
	"alcyxob/file-grants/internal/service"
	"alcyxob/file-grants/internal/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Logger builds the process logger from cfg.
func Logger(cfg config.LogConfig) (*logger.Logger, error) {
	return logger.New(logger.Config{Level: cfg.Level, Format: cfg.Format, OutputPath: cfg.Output})
}

// NewSigner returns the object signer selected by signer.backend.
func NewSigner(ctx context.Context, cfg config.Config) (storage.ObjectSigner, error) {
	switch cfg.Signer.Backend {
	case config.SignerMinio:
		return storage.NewMinioSigner(cfg.S3)
	case config.SignerS3, "":
		return storage.NewS3Signer(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown signer backend %q", cfg.Signer.Backend)
	}
}

// NewAuditRepository returns the audit sink selected by audit.backend and a
// cleanup func to release its connection.
func NewAuditRepository(ctx context.Context, cfg config.Config, log *logger.Logger) (repository.AuditRepository, func(), error) {
	switch cfg.Audit.Backend {
	case config.AuditMongo:
		client, err := mongo.ConnectDB(cfg.Database.URI)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongodb: %w", err)
		}
		db := client.Database(cfg.Database.Name)
		if err := mongo.EnsureAuditIndexes(ctx, db.Collection(cfg.AuditTable)); err != nil {
			log.Warn("failed to create audit indexes", logger.Error(err))
		}
		cleanup := func() {
			if err := mongo.DisconnectDB(client); err != nil {
				log.Error("failed to disconnect MongoDB", logger.Error(err))
			}
		}
		return mongo.NewMongoAuditRepository(db, cfg.AuditTable), cleanup, nil

	case config.AuditDynamoDB, "":
		awsConfig, err := loadAWSConfig(ctx, cfg.Audit.Region)
		if err != nil {
			return nil, nil, err
		}
		client := dynamodb.NewFromConfig(awsConfig)
		return dynamo.NewDynamoAuditRepository(client, cfg.AuditTable), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown audit backend %q", cfg.Audit.Backend)
	}
}

// loadAWSConfig loads the SDK configuration, overriding the region only when
// one is configured.
func loadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsCfg.LoadOptions) error
	if region != "" {
		opts = append(opts, awsCfg.WithRegion(region))
	}
	awsConfig, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsConfig, nil
}

// NewGrantService wires signer, audit sink and bucket into a GrantService.
func NewGrantService(ctx context.Context, cfg config.Config, log *logger.Logger) (service.GrantService, func(), error) {
	signer, err := NewSigner(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	audits, cleanup, err := NewAuditRepository(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	log.Info("grant service initialized",
		logger.String("bucket", cfg.FilesBucket),
		logger.String("audit_table", cfg.AuditTable),
		logger.String("signer", cfg.Signer.Backend),
		logger.String("audit_backend", cfg.Audit.Backend))

	return service.NewGrantService(signer, audits, cfg.FilesBucket, log), cleanup, nil
}
