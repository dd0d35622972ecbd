package work

import (
	"context"
	"strconv"
)

// Map runs fn over inputs on a short-lived pool and returns one result per
// input, in input order. Inputs never picked up (ctx ended first) carry
// ctx's error.
func Map[In, Out any](ctx context.Context, cfg PoolConfig, poolID string, inputs []In, fn func(ctx context.Context, in In) (Out, error)) []TaskResult[Out] {
	out := make([]TaskResult[Out], len(inputs))
	if len(inputs) == 0 {
		return out
	}

	cfg.TaskChannelSize = len(inputs)
	cfg.ResultChanSize = len(inputs)
	if cfg.NumWorkers > len(inputs) {
		cfg.NumWorkers = len(inputs)
	}

	pool, err := NewWorkerPoolWithConfig[Out](cfg)
	if err != nil {
		for i := range out {
			out[i].Error = err
		}
		return out
	}
	pool.Start(ctx, poolID)

	seen := make([]bool, len(inputs))
	for i, in := range inputs {
		task := NewTask(func(ctx context.Context) (Out, error) {
			return fn(ctx, in)
		}, WithID[Out](strconv.Itoa(i)))
		if err := pool.AddTask(ctx, task); err != nil {
			out[i].Error = err
			seen[i] = true
		}
	}

	pool.Stop()
	for res := range pool.Results() {
		idx, err := strconv.Atoi(res.TaskID)
		if err != nil || idx < 0 || idx >= len(out) {
			continue
		}
		out[idx] = res
		seen[idx] = true
	}

	for i := range out {
		if !seen[i] {
			out[i].TaskID = strconv.Itoa(i)
			out[i].Error = context.Cause(ctx)
			if out[i].Error == nil {
				out[i].Error = ErrPoolStopped
			}
		}
	}
	return out
}
