// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(label string, order *[]string, err error) *FunctionCommand {
	return &FunctionCommand{
		BaseCommand: NewBaseCommand(label, "", RunOnSuccess, nil),
		Func: func(context.Context) error {
			*order = append(*order, label)
			return err
		},
	}
}

func TestSerialBatchRun_InOrder(t *testing.T) {
	var order []string

	batch := &SerialBatch{
		BaseCommand: NewBaseCommand("steps", "", RunOnSuccess, nil),
		Commands: []Runnable{
			step("one", &order, nil),
			step("two", &order, nil),
			step("three", &order, nil),
		},
	}

	results := batch.Run(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, ResultStatusSuccess, results[0].Status)
	assert.Len(t, results[0].Children, 3)
	assert.Equal(t, []string{"one", "two", "three"}, order)
}

func TestSerialBatchRun_StopsAtFirstError(t *testing.T) {
	var order []string

	boom := errors.New("boom")
	always := step("always", &order, nil)
	always.RunsOnCondition = RunOnAlways
	onError := step("on-error", &order, nil)
	onError.RunsOnCondition = RunOnError

	batch := &SerialBatch{
		BaseCommand: NewBaseCommand("steps", "", RunOnSuccess, nil),
		Commands: []Runnable{
			step("one", &order, nil),
			step("two", &order, boom),
			step("three", &order, nil),
			onError,
			always,
		},
	}

	res := batch.Run(context.Background())[0]
	assert.Equal(t, ResultStatusError, res.Status)
	require.ErrorIs(t, res.Error, ErrResultChildrenHasError)
	assert.Equal(t, []string{"one", "two", "on-error", "always"}, order)

	children := res.Children
	require.Len(t, children, 5)
	assert.ErrorIs(t, children[1].Error, boom)
	assert.Equal(t, ResultStatusSkipped, children[2].Status)
	assert.ErrorIs(t, children[2].Error, ErrSkipOnError)
	assert.Equal(t, ResultStatusSuccess, children[3].Status, "runs because the last command that ran failed")
}

func TestSerialBatchRun_CancelledContext(t *testing.T) {
	var order []string

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := &SerialBatch{
		BaseCommand: NewBaseCommand("steps", "", RunOnSuccess, nil),
		Commands:    []Runnable{step("one", &order, nil)},
	}

	res := batch.Run(ctx)[0]
	assert.Empty(t, order)
	assert.Equal(t, ResultStatusSkipped, res.Children[0].Status)
	assert.ErrorIs(t, res.Children[0].Error, context.Canceled)
}

func TestSerialBatch_SetsParentAndEnv(t *testing.T) {
	child := step("child", new([]string), nil)
	child.Env = map[string]string{"A": "child"}

	batch := &SerialBatch{
		BaseCommand: NewBaseCommand("parent", "", RunOnSuccess, map[string]string{"A": "parent", "B": "parent"}),
		Commands:    []Runnable{child},
	}

	batch.Run(context.Background())

	assert.Equal(t, "parent > child", FullLabel(child))
	assert.Equal(t, map[string]string{"A": "child", "B": "parent"}, child.Env)
}
