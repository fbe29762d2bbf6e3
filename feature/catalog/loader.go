package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"batchsync/core/storage"
	"batchsync/feature/catalog/models"

	"github.com/goccy/go-json"
	"github.com/minio/minio-go/v7"
)

// LoadProducts downloads and decodes a product JSON object from storage.
// The object is a top-level array of products.
func LoadProducts(ctx context.Context, client storage.Client, bucket, objectName string) ([]models.Product, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s not found", bucket)
	}

	reader, err := client.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", objectName, err)
	}

	return decodeProducts(data, objectName)
}

// LoadProductsFile decodes a product JSON file from the local filesystem.
func LoadProductsFile(path string) ([]models.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return decodeProducts(data, path)
}

func decodeProducts(data []byte, source string) ([]models.Product, error) {
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	return products, nil
}
