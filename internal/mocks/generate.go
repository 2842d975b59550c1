package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Store --dir ../domain/blob --output domain/blob --outpkg blobmock --filename store_mock.go
