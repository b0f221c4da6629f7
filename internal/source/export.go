package source

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
)

// Exporter produces an OpenAPI 3.0 document for a deployed API stage and
// writes it to the requested path. Implementations are swappable so tests
// can substitute a fake.
type Exporter interface {
	Export(ctx context.Context, in ExportInput) error
}

// ExportInput identifies the stage to export and where to write the result.
type ExportInput struct {
	Region    string
	RestAPIID string
	StageName string
	OutPath   string
}

// gatewayAPI is the subset of the API Gateway client the exporter uses.
type gatewayAPI interface {
	GetExport(ctx context.Context, params *apigateway.GetExportInput, optFns ...func(*apigateway.Options)) (*apigateway.GetExportOutput, error)
}

// GatewayExporter exports a stage's OpenAPI 3.0 definition through the API
// Gateway GetExport API. The underlying client is built lazily on first
// use so that parameter validation happens before any AWS interaction.
type GatewayExporter struct {
	once sync.Once
	api  gatewayAPI
	err  error
}

// NewGatewayExporter creates an exporter that loads AWS credentials from
// the default chain on first export.
func NewGatewayExporter() *GatewayExporter {
	return &GatewayExporter{}
}

// NewGatewayExporterWithAPI builds an exporter around a custom API Gateway
// client, primarily for tests.
func NewGatewayExporterWithAPI(api gatewayAPI) *GatewayExporter {
	g := &GatewayExporter{api: api}
	g.once.Do(func() {})
	return g
}

// Export fetches the stage's oas30 export and writes it to in.OutPath.
func (g *GatewayExporter) Export(ctx context.Context, in ExportInput) error {
	g.once.Do(func() {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			g.err = fmt.Errorf("loading AWS configuration: %w", err)
			return
		}
		g.api = apigateway.NewFromConfig(cfg)
	})
	if g.err != nil {
		return g.err
	}

	out, err := g.api.GetExport(ctx, &apigateway.GetExportInput{
		RestApiId:  aws.String(in.RestAPIID),
		StageName:  aws.String(in.StageName),
		ExportType: aws.String("oas30"),
		Accepts:    aws.String("application/yaml"),
	}, func(o *apigateway.Options) {
		if in.Region != "" {
			o.Region = in.Region
		}
	})
	if err != nil {
		return &ExportError{Err: err}
	}

	if err := os.WriteFile(in.OutPath, out.Body, 0o644); err != nil {
		return fmt.Errorf("writing export to %s: %w", in.OutPath, err)
	}
	return nil
}
