package commands

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/spf13/cobra"

	"github.com/DrSkyle/balanco/pkg/consolidate"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Run as an AWS Lambda function",
	Long: `Starts the Lambda runtime loop. Each invocation event is either
{"year": 2023} or an API Gateway proxy event whose body carries the year.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := newHandler(cmd.Context())
		if err != nil {
			return err
		}

		lambda.StartWithOptions(func(ctx context.Context, event json.RawMessage) (consolidate.Response, error) {
			if lc, ok := lambdacontext.FromContext(ctx); ok {
				logger.Info("Invocation received", "aws_request_id", lc.AwsRequestID)
			}
			return h.Handle(ctx, event), nil
		}, lambda.WithEnableSIGTERM(func() {
			if shutdown != nil {
				_ = shutdown(context.Background())
			}
		}))
		return nil
	},
}
