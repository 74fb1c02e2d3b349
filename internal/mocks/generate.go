// Package mocks provides mock implementations for testing the interview
// feedback pipeline.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the core ports. The mocks are generated using go:generate directives and
// provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockChat := mocks.NewMockChatCompleter(ctrl)
//	mockChat.EXPECT().Chat(gomock.Any(), gomock.Any()).Return(response, nil)
package mocks

// Generate mock for ChatCompleter interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=chat_completer_mock.go github.com/prepwise/interview-api/internal/core ChatCompleter

// Generate mock for JobRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=job_repository_mock.go github.com/prepwise/interview-api/internal/core JobRepository

// Generate mock for InterviewRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=interview_repository_mock.go github.com/prepwise/interview-api/internal/core InterviewRepository
