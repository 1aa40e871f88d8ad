package evm

const (
	// Items-store function names
	FunctionOwner           = "owner"
	FunctionEthPrice        = "ethPrice"
	FunctionTokenPrice      = "tokenPrice"
	FunctionHasPurchased    = "hasPurchased"
	FunctionBuyWithEth      = "buyWithEth"
	FunctionBuyWithToken    = "buyWithToken"
	FunctionSetBookPrice    = "setBookPrice"
	FunctionWithdrawEth     = "withdrawEth"
	FunctionWithdrawToken   = "withdrawToken"
	FunctionSetTokenAddress = "setTokenAddress"

	// Token function names
	FunctionBalanceOf = "balanceOf"
	FunctionAllowance = "allowance"
	FunctionApprove   = "approve"
	FunctionClaim     = "claim"
	FunctionName      = "name"
	FunctionSymbol    = "symbol"
	FunctionDecimals  = "decimals"

	// Transaction status
	TxStatusSuccess = 1
	TxStatusFailed  = 0

	// ZeroAddress is the unset address
	ZeroAddress = "0x0000000000000000000000000000000000000000"
)

var (
	// BookStoreABI covers every items-store function the client calls
	BookStoreABI = []byte(`[
		{
			"inputs": [],
			"name": "owner",
			"outputs": [{"name": "", "type": "address"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [{"name": "bookId", "type": "uint256"}],
			"name": "ethPrice",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [{"name": "bookId", "type": "uint256"}],
			"name": "tokenPrice",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "user", "type": "address"},
				{"name": "bookId", "type": "uint256"}
			],
			"name": "hasPurchased",
			"outputs": [{"name": "", "type": "bool"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [{"name": "bookId", "type": "uint256"}],
			"name": "buyWithEth",
			"outputs": [],
			"stateMutability": "payable",
			"type": "function"
		},
		{
			"inputs": [{"name": "bookId", "type": "uint256"}],
			"name": "buyWithToken",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "bookId", "type": "uint256"},
				{"name": "ethAmount", "type": "uint256"},
				{"name": "tokenAmount", "type": "uint256"}
			],
			"name": "setBookPrice",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "withdrawEth",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "withdrawToken",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [{"name": "newToken", "type": "address"}],
			"name": "setTokenAddress",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		}
	]`)

	// TokenABI covers the ERC-20 subset plus the faucet claim
	TokenABI = []byte(`[
		{
			"inputs": [{"name": "account", "type": "address"}],
			"name": "balanceOf",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "owner", "type": "address"},
				{"name": "spender", "type": "address"}
			],
			"name": "allowance",
			"outputs": [{"name": "", "type": "uint256"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [
				{"name": "spender", "type": "address"},
				{"name": "amount", "type": "uint256"}
			],
			"name": "approve",
			"outputs": [{"name": "", "type": "bool"}],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "claim",
			"outputs": [],
			"stateMutability": "nonpayable",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "name",
			"outputs": [{"name": "", "type": "string"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "symbol",
			"outputs": [{"name": "", "type": "string"}],
			"stateMutability": "view",
			"type": "function"
		},
		{
			"inputs": [],
			"name": "decimals",
			"outputs": [{"name": "", "type": "uint8"}],
			"stateMutability": "view",
			"type": "function"
		}
	]`)
)
