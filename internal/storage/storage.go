// Package storage resolves generated audio assets out of an S3-compatible
// bucket. Tracks are stored as music/<spotify-id>.mp3 by the downloader
// pipeline; this service only checks for them and signs read URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrTrackNotFound is returned when no cached object exists for a track.
var ErrTrackNotFound = errors.New("track not found")

var trackIDPattern = regexp.MustCompile(`^[0-9A-Za-z]{22}$`)

const signedURLTTL = time.Hour

// Options configures the bucket connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// TrackStore checks the asset bucket for cached tracks and presigns
// download URLs.
type TrackStore struct {
	client *minio.Client
	bucket string
}

func NewTrackStore(opts Options) (*TrackStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object store: %w", err)
	}
	return &TrackStore{client: client, bucket: opts.Bucket}, nil
}

// Resolve returns a signed URL for the cached audio of trackID, or
// ErrTrackNotFound when the object does not exist.
func (s *TrackStore) Resolve(ctx context.Context, trackID string) (string, error) {
	key := ObjectKey(trackID)

	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return "", ErrTrackNotFound
		}
		return "", fmt.Errorf("stat %s: %w", key, err)
	}

	signed, err := s.client.PresignedGetObject(ctx, s.bucket, key, signedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return signed.String(), nil
}

// ObjectKey maps a track id to its bucket location.
func ObjectKey(trackID string) string {
	return "music/" + trackID + ".mp3"
}

// NormalizeTrackID strips any query-string suffix and validates that the
// remainder looks like a Spotify track id (22 base62 characters).
func NormalizeTrackID(raw string) (string, bool) {
	id, _, _ := strings.Cut(raw, "?")
	if !trackIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}
