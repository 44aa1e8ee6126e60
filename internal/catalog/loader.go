package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	loaderFetcherMissingMessageConstant = "catalog loader requires an item fetcher"
	loaderFetchErrorTemplateConstant    = "unable to fetch items for standard %s: %w"
	loaderTreeLoadedMessageConstant     = "standard item tree loaded"
	logFieldStandardIDConstant          = "standard_id"
	logFieldQuestionCountConstant       = "question_count"
	defaultLoaderConcurrencyConstant    = 4
)

var errLoaderFetcherMissing = errors.New(loaderFetcherMissingMessageConstant)

// ItemsFetcher reads one standard's item tree from the catalog backend.
type ItemsFetcher interface {
	FetchStandardItems(executionContext context.Context, standardID string) ([]StandardItem, error)
}

// Loader fetches item trees for several standards concurrently and stores them in an Index.
type Loader struct {
	fetcher     ItemsFetcher
	logger      *zap.Logger
	concurrency int
}

// NewLoader constructs a Loader around fetcher.
func NewLoader(fetcher ItemsFetcher, logger *zap.Logger) (*Loader, error) {
	if fetcher == nil {
		return nil, errLoaderFetcherMissing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{fetcher: fetcher, logger: logger, concurrency: defaultLoaderConcurrencyConstant}, nil
}

// Load fetches every standard in standardIDs that the index does not hold yet.
// The first fetch failure cancels the remaining fetches and is returned.
func (loader *Loader) Load(executionContext context.Context, index *Index, standardIDs []string) error {
	group, groupContext := errgroup.WithContext(executionContext)
	group.SetLimit(loader.concurrency)

	for _, standardID := range standardIDs {
		if index.Has(standardID) {
			continue
		}
		standardID := standardID
		group.Go(func() error {
			items, fetchError := loader.fetcher.FetchStandardItems(groupContext, standardID)
			if fetchError != nil {
				return fmt.Errorf(loaderFetchErrorTemplateConstant, standardID, fetchError)
			}
			index.Put(standardID, items)
			loader.logger.Debug(
				loaderTreeLoadedMessageConstant,
				zap.String(logFieldStandardIDConstant, standardID),
				zap.Int(logFieldQuestionCountConstant, CountQuestions(items)),
			)
			return nil
		})
	}

	return group.Wait()
}
