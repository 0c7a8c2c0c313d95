// Package batch drives a run of transcode jobs.
//
// A run opens one codec context, processes jobs strictly in order, isolates
// each job's failure (panics included), and reports progress on a
// machine-read status stream:
//
//	BATCH_START:<n>
//	CUDA:enabled|disabled
//	OK:<i>/<n>:<input>:<ow>x<oh>-><w>x<h>:<FORMAT>:<mips>
//	FAIL:<i>/<n>:<input>:<reason>
//	BATCH_END:<ok>:<failed>
//
// Run-fatal problems (no jobs, codec unavailable) produce a single
// ERROR:<message> line and no BATCH_START.
package batch
