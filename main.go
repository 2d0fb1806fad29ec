package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/quarryhq/basalt/http"
	"github.com/quarryhq/basalt/telemetry"
)

func main() {
	ctx := context.Background()

	shutdown, err := telemetry.Setup(ctx, "basalt")
	if err != nil {
		log.Fatalln(err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	server := http.New(func(req *http.Request, res *http.ResponseBuilder) (*http.Response, error) {
		return res.Body([]byte("hello world"))
	})

	log.Fatalln(server.Listen("0.0.0.0", "8080"))
}
