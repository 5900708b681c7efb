/*
Package session implements the Session Store of the intake bot.

It wraps a ports.SessionStore with per-user locking so that events of one user
are applied one at a time while distinct users proceed independently, and
optionally coordinates replicas through a ports.DistributedLocker.
*/
package session
