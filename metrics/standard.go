package metrics

// Metric names recorded by the interpreter and the world state.
const (
	VMOpsExecuted    = "vm.ops_executed"
	VMCalls          = "vm.calls"
	VMCallsFailed    = "vm.calls_failed"
	VMCreates        = "vm.creates"
	VMReverts        = "vm.reverts"
	VMCallDepth      = "vm.call_depth"
	VMExecutionTime  = "vm.execution_us"
	StateRemoteFetch = "state.remote_fetches"
	StateRemoteMiss  = "state.remote_errors"
	StateRemoteTime  = "state.remote_fetch_us"
)
