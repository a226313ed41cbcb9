package diag_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"argon/internal/diag"
	"argon/internal/source"
)

func TestError_IsMatchesByCode(t *testing.T) {
	sp := source.Span{File: 0, Start: 4, End: 9}
	err := fmt.Errorf("stage if: %w", diag.Errorf(diag.StgTypeMismatch, sp, "type mismatch: int != bool"))

	assert.ErrorIs(t, err, diag.ErrTypeMismatch)
	assert.NotErrorIs(t, err, diag.ErrUnsupported)

	de, ok := diag.AsError(err)
	require.True(t, ok)
	assert.Equal(t, sp, de.Span)
	assert.Equal(t, "type mismatch: int != bool", de.Error())
}

func TestError_EmptyMessageFallsBackToTitle(t *testing.T) {
	assert.Equal(t, diag.StgNoState.Title(), diag.ErrNoState.Error())
	assert.False(t, errors.Is(errors.New("other"), diag.ErrNoState))
}

func TestCode_ID(t *testing.T) {
	assert.Equal(t, "STG1002", diag.StgTypeMismatch.ID())
	assert.Equal(t, "RW2001", diag.RwUnsupported.ID())
	assert.Equal(t, "EV3001", diag.EvalUndefined.ID())
	assert.Equal(t, "E0000", diag.Code(9).ID())
}

func TestBag_LimitSortAndFirstError(t *testing.T) {
	b := diag.NewBag(2)
	r := diag.NewDedupReporter(diag.BagReporter{Bag: b})

	r.Report(diag.RwUnsupported, diag.SevError, source.Span{Start: 30, End: 35}, "break is not supported", nil)
	r.Report(diag.RwUnsupported, diag.SevError, source.Span{Start: 30, End: 35}, "break is not supported", nil)
	r.Report(diag.RwUnsupported, diag.SevWarning, source.Span{Start: 10, End: 12}, "shadowed", nil)
	r.Report(diag.RwParse, diag.SevError, source.Span{Start: 1, End: 2}, "dropped by limit", nil)

	require.Equal(t, 2, b.Len())
	b.Sort()
	assert.Equal(t, "shadowed", b.Items()[0].Message)
	assert.True(t, b.HasErrors())

	err := b.FirstError()
	require.Error(t, err)
	assert.ErrorIs(t, err, diag.ErrUnsupported)
	assert.Equal(t, "break is not supported", err.Error())
}
