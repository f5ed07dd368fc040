package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Load(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	var blob []byte
	if b := args.Get(0); b != nil {
		blob = b.([]byte)
	}
	return blob, args.Bool(1), args.Error(2)
}

func (m *MockGateway) Save(ctx context.Context, key string, blob []byte) error {
	args := m.Called(ctx, key, blob)
	return args.Error(0)
}

func (m *MockGateway) Close() error {
	args := m.Called()
	return args.Error(0)
}
