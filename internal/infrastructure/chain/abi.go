package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	EventAuctionCreated   = "AuctionCreated"
	EventAuctionCancelled = "AuctionCancelled"
)

// Only the events the indexer consumes.
const auctionContractABI = `[
  {"anonymous":false,"name":"AuctionCreated","type":"event","inputs":[
    {"indexed":true,"internalType":"uint256","name":"auctionId","type":"uint256"},
    {"indexed":true,"internalType":"address","name":"seller","type":"address"},
    {"indexed":false,"internalType":"address","name":"nftContract","type":"address"},
    {"indexed":false,"internalType":"uint256[]","name":"tokenIds","type":"uint256[]"},
    {"indexed":false,"internalType":"uint64","name":"endTime","type":"uint64"},
    {"indexed":false,"internalType":"bool","name":"bundle","type":"bool"}]},
  {"anonymous":false,"name":"AuctionCancelled","type":"event","inputs":[
    {"indexed":true,"internalType":"uint256","name":"auctionId","type":"uint256"},
    {"indexed":false,"internalType":"bool","name":"bundle","type":"bool"}]}
]`

// auctionCreatedData mirrors the non-indexed fields of AuctionCreated.
type auctionCreatedData struct {
	NftContract common.Address
	TokenIds    []*big.Int
	EndTime     uint64
	Bundle      bool
}

type auctionCancelledData struct {
	Bundle bool
}

func ParseAuctionABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(auctionContractABI))
}
