// Package rate throttles failed sign-in attempts with Redis fixed-window
// counters: INCR plus EXPIRE on the first hit. Keys:
//   - <prefix>:rl:e:<email>  failures per email
//   - <prefix>:rl:ip:<ip>    failures per client IP
package rate
