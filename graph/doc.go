// Package graph provides the state graph engine that runs teamgraph's supervisors and workers.
//
// A StateGraph holds nodes that share a state of type S. Execution follows a
// single path: the entry node runs, its update is merged through the graph's
// StateSchema, and the next node is chosen by the node's Command, a
// conditional edge, or a static edge, in that order. The run stops when a
// node routes to END.
//
// # Commands and destinations
//
// Nodes added with AddCommandNode declare every node they may route to.
// Compile rejects undeclared or unknown destinations, and a Command naming a
// target outside the declared set fails the run with ErrInvalidDestination.
//
// # Nested graphs
//
// A compiled graph may be invoked from inside a node of another graph. The
// inner invocation joins the outer run:
//
//   - node transitions count against the same recursion limit
//   - callbacks and listeners keep firing
//   - message chunks carry the full node path, e.g. "research_team:<id>|search:<id>"
//
// When the run performs more transitions than Config.RecursionLimit
// (DefaultRecursionLimit when unset), it fails with *GraphRecursionError.
//
// # Streaming
//
// Stream runs the graph in a goroutine and delivers StreamEvents through a
// bounded channel. Nodes publish model output with EmitMessage:
//
//	res := runnable.Stream(ctx, input, &graph.Config{RecursionLimit: 150}, graph.DefaultStreamConfig())
//	defer res.Cancel()
//	for ev := range res.Events {
//		fmt.Print(ev.Chunk)
//	}
//	final, err := res.Wait()
//
// # Checkpointing
//
// CheckpointListener is a GraphCallbackHandler that saves every merged step
// to a store.CheckpointStore, indexed by run ID.
package graph
