/*
Package telelab is a client library for a remote digital-logic laboratory.

A student logs in, selects a module and an experiment, arms a remote device
over HTTP, polls it for the truth table it measures and submits the result to
the practicum backend.

# Concept

The library follows a Hexagonal Architecture. The workflow controller only
talks to ports (Device, Backend, SessionStore, DistributedLocker); HTTP
clients, session stores and an in-process simulator are adapters. The Client
in this package wires the default adapters together.

# Key Features

  - Lazy Truth Tables: Every input combination is enumerated in numeric order with a bounded input count.
  - Explicit Polling: Polling returns a handle; restart, close and context cancellation all stop it.
  - Injected Sessions: Credentials and the selected module live in a memory, file or redis store.
  - Observability: Lifecycle hooks feed slog and Prometheus.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/telelab"
	)

	func main() {
		ctx := context.Background()

		client, err := telelab.New(
			telelab.WithDeviceURL("http://192.168.4.1"),
			telelab.WithAPIURL("https://lab.example.edu/api/"),
		)
		if err != nil {
			log.Fatal(err)
		}
		defer client.Close()

		if _, err := client.Login(ctx, "5025201001", "secret-password"); err != nil {
			log.Fatal(err)
		}
		if err := client.SelectModule(ctx, 1); err != nil {
			log.Fatal(err)
		}

		wf, err := client.Workflow(ctx, 4)
		if err != nil {
			log.Fatal(err)
		}
		defer wf.Close()

		// Arm the device, then start polling its truth table.
		if err := wf.Setup(ctx); err != nil {
			log.Fatal(err)
		}
		if err := wf.Start(ctx); err != nil {
			log.Fatal(err)
		}

		// ... wait for rows ...
		fmt.Println(wf.Snapshot().Rows)

		if err := wf.Send(ctx); err != nil {
			log.Fatal(err)
		}
	}
*/
package telelab
