// Package engine provides a Go SDK for running report generation jobs with
// progress estimation programmatically.
//
// This package allows applications to submit jobs, receive live progress
// updates with history-based remaining-time estimates, and manage the
// recorded duration history, without shelling out to the jobpace CLI binary.
//
// # Quick Start
//
// Create a client and run a job, receiving progress updates through a callback:
//
//	client, err := engine.New(ctx, engine.Config{APIURL: "https://reports.example.com"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	result, err := client.RunJob(ctx, engine.JobRequest{
//	    Type:      engine.JobTypePDF,
//	    InputPath: "/reports/input.html",
//	}, func(u engine.Update) {
//	    fmt.Printf("%.0f%% %s\n", u.Percent, u.StageLabel)
//	})
//
// # Duration History
//
// Realized stage durations are persisted in a SQLite database and feed the
// remaining-time estimates of later runs:
//
//	summaries, _ := client.History(ctx, engine.JobTypePDF)
//	client.ClearHistory(ctx, engine.JobTypePDF)
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotValid]: Invalid input (unknown job type, missing input path).
//   - [ErrJobFailed]: The backend reported a job failure.
//   - [ErrSessionExpired]: The backend no longer knows the polled session.
//
// # Testing
//
// Provide a custom [APIClient] and a temporary database path to write tests
// without a real backend:
//
//	client, _ := engine.New(ctx, engine.Config{
//	    APIClient: myStubClient,
//	    DBPath:    filepath.Join(t.TempDir(), "test.db"),
//	})
//	defer client.Close()
package engine
