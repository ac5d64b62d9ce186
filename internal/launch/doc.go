// Package launch starts backend processes and exposes their output as a
// stream of events.
//
// Every process is placed in its own process group on POSIX systems so that
// the descendant terminator can later reach children the handle does not
// track. On Windows no equivalent job-control primitive is configured here;
// tree termination relies on taskkill at shutdown time.
package launch
