package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var Client *minio.Client
var BucketName string

// ErrNoStorage is returned when no object store is configured.
var ErrNoStorage = errors.New("object storage not available")

const defaultBucket = "identity-observations"

// Init connects to MinIO using MINIO_ENDPOINT, MINIO_ACCESS_KEY,
// MINIO_SECRET_KEY, MINIO_BUCKET and MINIO_USE_SSL, creating the bucket if
// needed. Without an endpoint observations are not archived.
func Init(log *zap.Logger) error {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		log.Info("no object storage configured, observations will not be archived")
		return ErrNoStorage
	}

	BucketName = os.Getenv("MINIO_BUCKET")
	if BucketName == "" {
		BucketName = defaultBucket
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: os.Getenv("MINIO_USE_SSL") == "true",
	})
	if err != nil {
		return errors.Wrap(err, "failed to create MinIO client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, BucketName)
	if err != nil {
		return errors.Wrap(err, "failed to check bucket")
	}
	if !exists {
		if err := client.MakeBucket(ctx, BucketName, minio.MakeBucketOptions{}); err != nil {
			return errors.Wrapf(err, "failed to create bucket %s", BucketName)
		}
		log.Info("bucket created", zap.String("bucket", BucketName))
	}

	Client = client
	return nil
}

// Ping checks that the archive bucket is reachable.
func Ping(ctx context.Context) error {
	if Client == nil {
		return ErrNoStorage
	}
	exists, err := Client.BucketExists(ctx, BucketName)
	if err != nil {
		return errors.Wrap(err, "failed to check bucket")
	}
	if !exists {
		return errors.Newf("bucket %s does not exist", BucketName)
	}
	return nil
}

// SessionPrefix is the object prefix holding every observation of a session.
// Path format: YYYY/MM/{session_id}/
func SessionPrefix(sessionID uuid.UUID, created time.Time) string {
	return fmt.Sprintf("%d/%02d/%s/", created.Year(), created.Month(), sessionID)
}

// ObservationObject names the seq-th observation of a session.
func ObservationObject(sessionID uuid.UUID, created time.Time, seq int) string {
	return fmt.Sprintf("%s%04d.txt", SessionPrefix(sessionID, created), seq)
}

// ArchiveObservation stores the raw text of one observation and returns its
// bucket-qualified path.
func ArchiveObservation(ctx context.Context, sessionID uuid.UUID, created time.Time, seq int, text string) (string, error) {
	if Client == nil {
		return "", ErrNoStorage
	}

	objectName := ObservationObject(sessionID, created, seq)
	_, err := Client.PutObject(ctx, BucketName, objectName, strings.NewReader(text), int64(len(text)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return "", errors.Wrap(err, "failed to archive observation")
	}
	return BucketName + "/" + objectName, nil
}

// DeleteSessionObservations removes every archived observation of a session
// and returns how many objects were removed.
func DeleteSessionObservations(ctx context.Context, sessionID uuid.UUID, created time.Time) (int, error) {
	if Client == nil {
		return 0, ErrNoStorage
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var found []minio.ObjectInfo
	for obj := range Client.ListObjects(ctx, BucketName, minio.ListObjectsOptions{
		Prefix:    SessionPrefix(sessionID, created),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return 0, errors.Wrap(obj.Err, "failed to list observations")
		}
		found = append(found, obj)
	}
	if len(found) == 0 {
		return 0, nil
	}

	toRemove := make(chan minio.ObjectInfo, len(found))
	for _, obj := range found {
		toRemove <- obj
	}
	close(toRemove)

	for rerr := range Client.RemoveObjects(ctx, BucketName, toRemove, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return 0, errors.Wrapf(rerr.Err, "failed to remove %s", rerr.ObjectName)
		}
	}
	return len(found), nil
}

// GetPresignedURL generates a presigned URL for reading an archived object.
func GetPresignedURL(ctx context.Context, objectPath string) (string, error) {
	if Client == nil {
		return "", ErrNoStorage
	}
	url, err := Client.PresignedGetObject(ctx, BucketName, trimBucket(objectPath), 24*time.Hour, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate presigned URL")
	}
	return url.String(), nil
}

func trimBucket(objectPath string) string {
	return strings.TrimPrefix(objectPath, BucketName+"/")
}
