// Package apitest runs an in-process fake of the blog API for tests.
//
// The fake issues HS256 access tokens, keeps a rotating refresh token in the
// refresh_token cookie and answers an invalid or expired bearer with
// 401 {"code": "token_not_valid"}, which is what drives the client's refresh
// path. Tests steer it through exported knobs such as ExpireAccessTokens and
// FailRefresh, and inspect it through Requests and RefreshCalls.
package apitest
