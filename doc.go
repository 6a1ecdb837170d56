// Package mmapio performs file I/O through memory mappings.
//
// Reads and writes are served by copying to and from a mapped view of the
// file instead of issuing read and write syscalls. Each open file keeps one
// mapping: the whole file when it fits the per-file budget, otherwise a
// bounded window that is moved whenever a request falls outside it.
//
// # Quick Start
//
//	p := mmapio.NewProcess(mmapio.WithLogLevel(slog.LevelDebug))
//	errs := &mmapio.JobErrors{}
//	e, _ := p.NewEngine(mmapio.JobConfig{Name: "job1", NrFiles: 1, Mode: mmapio.ModeReadWrite}, errs)
//	f, _ := e.OpenFile(ctx, "/data/file", 0, 10<<20)
//	defer e.Close()
//
//	r := &mmapio.Request{Op: mmapio.OpWrite, Offset: 0, Buf: buf}
//	if err := e.Prepare(ctx, f, r); err != nil {
//	    return err // the file is stopped and errs holds the error
//	}
//	if e.Execute(ctx, f, r) == mmapio.CompletedWithError {
//	    log.Println(r.Err) // per-request error, the job continues
//	}
//
// # Windows
//
// The global budget (1 GiB unless set with WithGlobalBudget) is divided by
// the job's file count. A file no larger than its share is mapped once; a
// larger file, or one whose full mapping failed, gets a window of at most
// that share. A request longer than the window fails with
// KindRequestTooLarge without a mapping call.
//
// # Sharing
//
// WithShare lets all threads of a job reuse one mapping, registered under
// the job name in a fixed-size registry owned by the Process. Shared
// mappings are never unmapped and must cover the whole file. The key is the
// job name only, so every file of a sharing job resolves to the same mapping.
// Callers that enable sharing assert that concurrent threads touch disjoint
// bytes.
//
// # Errors
//
// Mapping failures are returned as *MappingError. Kinds for which
// Kind.Fatal reports true stop the file and are reported to the job's
// ErrorSink; sync, drop and trim failures are set on Request.Err only.
package mmapio
