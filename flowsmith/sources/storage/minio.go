package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"flowsmith/flowsmith/config"
	"flowsmith/flowsmith/utils/logging"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Archive mirrors committed workflow definitions to object storage.
type Archive interface {
	UploadWorkflow(ctx context.Context, sessionID, workflowID string, definition []byte) (string, error)
}

type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(ctx context.Context, cfg config.Config) (*MinIOClient, error) {
	client, err := minio.New(
		cfg.MinIOEndpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
			Secure: cfg.MinIOUseSSL,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	// Create bucket if not exists
	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.MinIOBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %s: %w", cfg.MinIOBucket, err)
		}
		logging.AppLogger.Info("Created archive bucket", zap.String("bucket", cfg.MinIOBucket))
	}
	return &MinIOClient{client: client, bucket: cfg.MinIOBucket}, nil
}

// WorkflowKey is the object key of a workflow definition. Both ids are
// escaped into single segments so every key stays under workflows/.
func WorkflowKey(sessionID, workflowID string) string {
	return "workflows/" + keySegment(sessionID) + "/" + keySegment(workflowID) + ".json"
}

func keySegment(s string) string {
	seg := url.PathEscape(s)
	if strings.Trim(seg, ".") == "" {
		// "", "." and ".." would collapse or climb
		seg = "_" + strings.ReplaceAll(seg, ".", "%2E")
	}
	return seg
}

// UploadWorkflow stores definition under WorkflowKey and returns the key.
func (m *MinIOClient) UploadWorkflow(ctx context.Context, sessionID, workflowID string, definition []byte) (string, error) {
	defer logging.LogDuration(ctx, "minio_upload_workflow")()
	key := WorkflowKey(sessionID, workflowID)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(definition), int64(len(definition)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", err
	}
	return key, nil
}
