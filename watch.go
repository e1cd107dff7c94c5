package twconfig

import (
	"context"

	"github.com/yacobolo/twconfig/internal/watch"
)

// Watch builds once and rebuilds whenever one of the resolved config files
// changes, until ctx is canceled. onBuild receives every build outcome. A
// failed rebuild keeps the previously watched files.
func Watch(ctx context.Context, cfg Config, onBuild func(*Result, error)) error {
	result, err := Setup(ctx, cfg)
	onBuild(result, err)

	var initial []string
	if err == nil {
		initial = result.ConfigPaths
	}

	w := watch.New(func(ctx context.Context, _ string) ([]string, error) {
		result, err := Setup(ctx, cfg)
		onBuild(result, err)
		if err != nil {
			return nil, err
		}
		return result.ConfigPaths, nil
	}, cfg.Logger)
	return w.Run(ctx, initial)
}
