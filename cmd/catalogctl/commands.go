package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wichananm65/fitness-shop-backend/internal/apperr"
	"github.com/wichananm65/fitness-shop-backend/internal/recommended"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres schema or the MongoDB indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := deps.Migrate(cmd.Context()); err != nil {
			return err
		}
		logger.Info("schema ready", zap.String("driver", deps.Config.Store.Driver))
		return nil
	},
}

var (
	seedFile string
	seedKeep bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load products from a YAML file",
	Long: `Replaces the catalog with the products listed in a YAML file. With --keep
existing products stay and only products whose slug is new are added.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		inputs, err := readSeed(seedFile)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if !seedKeep {
			created, err := deps.Products.ResetProducts(ctx, inputs)
			if err != nil {
				return err
			}
			logger.Info("catalog replaced", zap.Int("products", len(created)))
			return nil
		}

		added := 0
		for _, in := range inputs {
			_, err := deps.Products.Create(ctx, in)
			switch {
			case apperr.Is(err, apperr.KindConflict):
				logger.Debug("skipping existing product", zap.String("name", in.Name))
			case err != nil:
				return fmt.Errorf("create %q: %w", in.Name, err)
			default:
				added++
			}
		}
		logger.Info("catalog extended", zap.Int("added", added), zap.Int("skipped", len(inputs)-added))
		return nil
	},
}

var (
	recID    string
	recSlug  string
	recName  string
	recLimit int
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print recommendations for a product",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := recommended.Request{ProductID: recID, Slug: recSlug, ProductName: recName}
		if cmd.Flags().Changed("limit") {
			req.Limit = &recLimit
		}
		items, err := deps.Recommender.Recommend(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"recommendations": items})
	},
}

var (
	descName     string
	descCategory string
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Generate a product description",
	RunE: func(cmd *cobra.Command, args []string) error {
		if descName == "" {
			return errors.New("--name is required")
		}
		text, err := deps.Content.GenerateDescription(cmd.Context(), descName, descCategory)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

var validateText string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a description against the catalog writing rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := deps.Content.ValidateDescription(cmd.Context(), validateText)
		if err != nil {
			return err
		}
		return printJSON(v)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "products.yaml", "YAML file with the products")
	seedCmd.Flags().BoolVar(&seedKeep, "keep", false, "keep existing products and add only new ones")

	recommendCmd.Flags().StringVar(&recID, "id", "", "anchor product id")
	recommendCmd.Flags().StringVar(&recSlug, "slug", "", "anchor product slug")
	recommendCmd.Flags().StringVar(&recName, "name", "", "anchor product name")
	recommendCmd.Flags().IntVar(&recLimit, "limit", recommended.DefaultLimit, "number of recommendations")

	describeCmd.Flags().StringVar(&descName, "name", "", "product name")
	describeCmd.Flags().StringVar(&descCategory, "category", "", "product category")

	validateCmd.Flags().StringVar(&validateText, "text", "", "description to check")
}
