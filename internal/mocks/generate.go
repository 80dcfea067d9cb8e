// Package mocks provides mock implementations for testing the pipeline services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core port interfaces. The mocks are generated using go:generate
// directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	gen := mocks.NewMockGenerationService(ctrl)
//	gen.EXPECT().Research(gomock.Any(), "topic", gomock.Any()).Return(research, nil)
package mocks

// Generate mock for GenerationService interface from internal/core package.
// This creates MockGenerationService with methods:
// Research, Draft, Review, Refine
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=generation_service_mock.go github.com/draftforge/draftforge/internal/core GenerationService

// Generate mock for Moderator interface from internal/core package.
// This creates MockModerator with methods:
// Moderate
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=moderator_mock.go github.com/draftforge/draftforge/internal/core Moderator

// Generate mock for InboxSource interface from internal/core package.
// This creates MockInboxSource with methods:
// FetchUnread, MarkConsumed
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=inbox_source_mock.go github.com/draftforge/draftforge/internal/core InboxSource

// Generate mock for DeliverySink interface from internal/core package.
// This creates MockDeliverySink with methods:
// Deliver
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=delivery_sink_mock.go github.com/draftforge/draftforge/internal/core DeliverySink

// Generate mock for JobArchive interface from internal/core package.
// This creates MockJobArchive with methods:
// Record
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_archive_mock.go github.com/draftforge/draftforge/internal/core JobArchive
