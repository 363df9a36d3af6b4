package routines_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/caiorcferreira/datajoin/internal/pipeline"
)

func generateTestMsgs(start, size int) []pipeline.Msg {
	testData := make([]pipeline.Msg, 0, size)
	for i := start; i < start+size; i++ {
		testData = append(testData, pipeline.Msg{
			ID:   fmt.Sprint(i),
			Data: i,
		})
	}

	return testData
}

// run feeds msgs through routine and returns its output and error.
func run(ctx context.Context, routine pipeline.Routine, msgs []pipeline.Msg) ([]pipeline.Msg, error) {
	pipe := pipeline.NewChanPipe()

	go func() {
		defer close(pipe.In())
		for _, msg := range msgs {
			select {
			case <-ctx.Done():
				return
			case <-pipe.Done():
				return
			case pipe.In() <- msg:
			}
		}
	}()

	var results []pipeline.Msg
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		for msg := range pipe.Out() {
			results = append(results, msg)
		}
	}()

	err := routine.Start(ctx, pipe)
	wg.Wait()

	return results, err
}
