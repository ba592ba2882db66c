package middleware

// PolicyRateLimiterWithClock exposes the clock-injected constructor to tests.
var PolicyRateLimiterWithClock = policyRateLimiter
