// Package awsboot provides the AWS bootstrap shared by the daemon and its
// subcommands: SDK config, the optional archive S3 client, and SSM secret
// lookup.
//
// AWS is optional. Nothing here is loaded unless the config asks for an
// archive bucket or an SSM-held password.
package awsboot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// AWSClients holds the core AWS SDK clients.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// S3Clients holds the S3 client and archive bucket name.
type S3Clients struct {
	Client *s3.Client
	Bucket string
}

// SSMAPI is the subset of the SSM client used for secret lookup.
type SSMAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS(ctx context.Context) (AWSClients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return AWSClients{}, fmt.Errorf("load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}, nil
}

// InitS3Optional creates an S3 client for bucket. Returns nil (with a
// debug log) when bucket is empty.
func InitS3Optional(cfg aws.Config, bucket string) *S3Clients {
	if bucket == "" {
		log.Debug().Msg("Archive bucket not set, S3 mirror disabled")
		return nil
	}
	return &S3Clients{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
	}
}

// LoadSecretParam reads a SecureString parameter with decryption.
func LoadSecretParam(ctx context.Context, client SSMAPI, name string) (string, error) {
	start := time.Now()
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get SSM parameter %s: %w", name, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("SSM parameter %s has no value", name)
	}
	log.Debug().Str("param", name).Dur("elapsed", time.Since(start)).Msg("Secret loaded from SSM")
	return *result.Parameter.Value, nil
}

// CachedSecretLoader returns a loader that calls SSM once per parameter for
// the life of the process. Failures are not cached.
func CachedSecretLoader(client SSMAPI) func(ctx context.Context, name string) (string, error) {
	var mu sync.Mutex
	cache := make(map[string]string)
	return func(ctx context.Context, name string) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if v, ok := cache[name]; ok {
			return v, nil
		}
		v, err := LoadSecretParam(ctx, client, name)
		if err != nil {
			return "", err
		}
		cache[name] = v
		return v, nil
	}
}
