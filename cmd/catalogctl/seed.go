package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wichananm65/fitness-shop-backend/internal/product"
	"gopkg.in/yaml.v3"
)

// seedDocument is the layout of a seed file.
type seedDocument struct {
	Products []product.CreateInput `yaml:"products"`
}

func readSeed(path string) ([]product.CreateInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return parseSeed(data)
}

func parseSeed(data []byte) ([]product.CreateInput, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc seedDocument
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if len(doc.Products) == 0 {
		return nil, errors.New("seed file lists no products")
	}
	return doc.Products, nil
}
