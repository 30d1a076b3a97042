package handlers

import (
	"time"

	"thumbserver/internal/pipeline"
	"thumbserver/internal/workers"
)

type Handlers struct {
	gen       *pipeline.Generator
	pool      *workers.Pool
	mediaDir  string
	startTime time.Time
}

func New(gen *pipeline.Generator, pool *workers.Pool, mediaDir string) *Handlers {
	return &Handlers{
		gen:       gen,
		pool:      pool,
		mediaDir:  mediaDir,
		startTime: time.Now(),
	}
}
