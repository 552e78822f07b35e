package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scriba/internal/models"
)

func fakeLocator(name string, found bool, err error, hits *[]string) locator {
	return locator{
		name: name,
		attempt: func(ctx context.Context) (bool, error) {
			*hits = append(*hits, name)
			return found, err
		},
	}
}

func TestRunChain_FirstSuccessWins(t *testing.T) {
	var hits []string
	locators := []locator{
		fakeLocator("first", false, nil, &hits),
		fakeLocator("second", true, nil, &hits),
		fakeLocator("third", true, nil, &hits),
	}

	matched, err := runChain(context.Background(), "More", locators, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, "second", matched)
	assert.Equal(t, []string{"first", "second"}, hits)
}

func TestRunChain_ErrorsSkipToNext(t *testing.T) {
	var hits []string
	locators := []locator{
		fakeLocator("broken", false, errors.New("evaluate failed"), &hits),
		fakeLocator("working", true, nil, &hits),
	}

	matched, err := runChain(context.Background(), "More", locators, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, "working", matched)
}

func TestRunChain_ExhaustionReportsEntryPoint(t *testing.T) {
	var hits []string
	locators := []locator{
		fakeLocator("first", false, nil, &hits),
		fakeLocator("second", false, nil, &hits),
	}

	_, err := runChain(context.Background(), "Resources", locators, arbor.NewLogger())
	require.Error(t, err)
	assert.True(t, models.IsEntryPointNotFound(err))

	var notFound *models.EntryPointNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Resources", notFound.EntryPoint)
	assert.Equal(t, []string{"first", "second"}, hits)
}
