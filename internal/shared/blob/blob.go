package blob

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config de conexão com storage S3-compatível (MinIO local, R2, AWS)
type Config struct {
	Endpoint       string // vazio para AWS S3 padrão
	Region         string
	Bucket         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool   // necessário para MinIO e afins
	PublicBaseURL  string // base das URLs públicas servidas ao cliente
}

// Client encapsula o cliente S3 e o bucket padrão de mídia de provas
type Client struct {
	s3         *s3.Client
	bucket     string
	publicBase string
}

// Connect cria o cliente S3 com credenciais estáticas e endpoint customizado
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blob: bucket obrigatório")
	}

	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("blob: load aws config: %w", err)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.ForcePathStyle {
		opts = append(opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &Client{
		s3:         s3.NewFromConfig(awsCfg, opts...),
		bucket:     cfg.Bucket,
		publicBase: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload grava um objeto no bucket (upsert: sobrescreve se a chave já existir)
func (c *Client) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("blob: put %s: %w", key, err)
	}
	return nil
}

// PublicURL monta a URL pública de um objeto já gravado
func (c *Client) PublicURL(key string) string {
	return c.publicBase + "/" + key
}

// Health verifica acesso ao bucket via HeadBucket
func (c *Client) Health(ctx context.Context) error {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	return err
}
