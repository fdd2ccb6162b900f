package lower

import "github.com/roach88/mpilower/internal/opir"

// Routine and property names of the lowered calls.
const (
	NameSend            = "MPI_send"
	NameRecv            = "MPI_recv"
	NameAsyncSend       = "MPI_isend"
	NameAsyncRecv       = "MPI_irecv"
	NameSendRecv        = "MPI_sendrecv"
	NameSendRecvReplace = "MPI_sendrecv_replace"
	NameWaitAll         = "MPI_waitall"
	NameBcast           = "MPI_bcast"
	NameScatter         = "MPI_scatter"
	NameGather          = "MPI_gather"
	NameBarrier         = "barrier"
	NameCommSize        = "size"
	NameCommRank        = "rank"
)

// variantNames are the Go type names used in error messages.
var variantNames = map[opir.Kind]string{
	opir.KindSend:            "Send",
	opir.KindRecv:            "Recv",
	opir.KindAsyncSend:       "AsyncSend",
	opir.KindAsyncRecv:       "AsyncRecv",
	opir.KindSendRecv:        "SendRecv",
	opir.KindSendRecvReplace: "SendRecvReplace",
	opir.KindWaitAll:         "WaitAll",
	opir.KindBarrier:         "Barrier",
	opir.KindBcast:           "Bcast",
	opir.KindScatter:         "Scatter",
	opir.KindGather:          "Gather",
	opir.KindCommSize:        "CommSize",
	opir.KindCommRank:        "CommRank",
}

func variantName(k opir.Kind) string {
	if name, ok := variantNames[k]; ok {
		return name
	}
	return k.String()
}
