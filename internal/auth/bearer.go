package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/metadata"
)

var errNoBearer = errors.New("no bearer token")

// BearerFromHeader extracts the token from an "Authorization: Bearer <t>" value.
func BearerFromHeader(v string) (string, error) {
	v = strings.TrimSpace(v)
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		if t := strings.TrimSpace(v[7:]); t != "" {
			return t, nil
		}
	}
	return "", errNoBearer
}

// BearerFromMetadata extracts the token from incoming gRPC metadata.
func BearerFromMetadata(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		if t, err := BearerFromHeader(v); err == nil {
			return t, nil
		}
	}
	return "", errNoBearer
}
