// Package datajoin detects the end of finite datasets one element early.
//
// Join wraps an iterator so every element is paired with a flag telling
// whether it is the last one, and records that flag in an EndState the
// consumer can read between steps:
//
//	it := datajoin.Join(dataset)
//	for {
//		v, err := it.Next(ctx)
//		if err != nil {
//			break
//		}
//		train(v)
//		if it.Ended() {
//			// no more data; join the remaining collective steps idle
//		}
//	}
package datajoin

import (
	"github.com/caiorcferreira/datajoin/internal/dataset"
)

type (
	Iterator[T any] = dataset.Iterator[T]
	Source[T any]   = dataset.Source[T]
	Stage[T any]    = dataset.Stage[T]
	Marked[T any]   = dataset.Marked[T]
	EndState        = dataset.EndState
)

// Join attaches end detection to it.
func Join[T any](it Iterator[T]) *dataset.DetectEndIterator[T] {
	return dataset.Join(it)
}

// JoinStage returns Join as a stage; each application gets its own register.
func JoinStage[T any]() Stage[T] {
	return dataset.JoinStage[T]()
}

// MarkEnd pairs every element with its end marker.
func MarkEnd[T any](it Iterator[T]) Iterator[Marked[T]] {
	return dataset.MarkEnd(it)
}

// From starts a declarative chain whose EndState follows the last Join.
func From[T any](it Iterator[T]) *dataset.Pipeline[T] {
	return dataset.From(it)
}
