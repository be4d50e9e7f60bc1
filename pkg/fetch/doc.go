// Package fetch acquires raw payloads for extraction targets via two
// interchangeable strategies: a direct JSON API client and a headless
// browser fallback. Both present the same session identity (cookies,
// user agent, proxy) and classify their failures with the pkg/errors
// taxonomy, so the retry policy can swap one for the other mid-walk.
package fetch
