package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"textgend/internal/config"
	"textgend/internal/service"
	"textgend/pkg/types"
)

// generate runs one request through the same service path the HTTP API uses.
func (a *app) generate(ctx context.Context, cfg config.Config, prompt string, maxNew, numSeq int, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc := a.newService(cfg)
	if err := svc.Start(ctx); err != nil {
		return withModelHint(err)
	}
	defer svc.Close()

	res, err := svc.Generate(ctx, service.GenerationRequest{
		Prompt:             prompt,
		MaxNewTokens:       maxNew,
		NumReturnSequences: numSeq,
	})
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(types.GenerateResponse{GeneratedSequences: res.Sequences})
	}
	for i, s := range res.Sequences {
		if i > 0 {
			fmt.Fprintln(a.stdout, "---")
		}
		fmt.Fprintln(a.stdout, s)
	}
	return nil
}
