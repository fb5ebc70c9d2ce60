package controller

import "context"

type contextKey int

const identityIdCtxKey contextKey = iota

func (c controller) getIdentityIdFromCtx(ctx context.Context) string {
	identityId, ok := ctx.Value(identityIdCtxKey).(string)
	if !ok {
		return ""
	}

	return identityId
}
