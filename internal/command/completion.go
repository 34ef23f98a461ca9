// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/oroclass/spotctl/internal/meta"
	"github.com/urfave/cli/v3"
)

const bashCompletionScript = `# bash completion for spotctl
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_spotctl()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "calc catalog completion hash-password quote serve --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local store="--store --cache-path --bucket --key --region --profile --endpoint --dsn"
    local quote="--token --base-url --currency --freshness --timeout"
    local catalog="--items --uploads --max-image-bytes"
    local output="--color -c --output -o --titles -t --tldr"

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json yaml raw" -- "$cur") )
            return 0
            ;;
        --store)
            COMPREPLY=( $(compgen -W "file s3 sqlite memory" -- "$cur") )
            return 0
            ;;
        --metal|-m)
            COMPREPLY=( $(compgen -W "24k 22k 18k 14k 9k ag999 ag925 ag800" -- "$cur") )
            return 0
            ;;
        --image|--items|--cache-path|--dsn)
            COMPREPLY=( $(compgen -f -- "$cur") )
            return 0
            ;;
        --uploads)
            COMPREPLY=( $(compgen -d -- "$cur") )
            return 0
            ;;
    esac

    case "$cmd" in
        calc)
            local opts="$store $quote $output --metal -m --weight -w --interactive -i --spread --payout"
            ;;
        catalog)
            if [[ ${COMP_CWORD} -eq 2 ]]; then
                COMPREPLY=( $(compgen -W "list add update delete toggle-sold" -- "$cur") )
                return 0
            fi
            case "${COMP_WORDS[2]}" in
                list)
                    local opts="$catalog $output --filter -f --sort -s"
                    ;;
                add)
                    local opts="$catalog --title --price --description --image --version"
                    ;;
                update)
                    local opts="$catalog --title --price --description --image --version --order --delete-image --color -c"
                    ;;
                *)
                    local opts="$catalog --version"
                    ;;
            esac
            ;;
        quote)
            local opts="$store $quote $output"
            ;;
        serve)
            local opts="$store $quote $catalog --addr --cors-origin --admin-email --admin-hash --shutdown-timeout --spread --payout --tldr"
            ;;
        hash-password)
            local opts="--cost"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="--help"
            ;;
    esac

    COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
    return 0
}

complete -F _spotctl spotctl
`

const zshCompletionScript = `#compdef spotctl

_spotctl() {
  local -a cmds
  cmds=(
    'calc:price a weight of gold or silver'
    'catalog:list and edit shop items'
    'completion:generate shell completion script'
    'hash-password:hash an admin password'
    'quote:show gold and silver spot prices'
    'serve:run the HTTP server'
  )

  local -a store
  store=(
  '--store[cache store]:store:(file s3 sqlite memory)'
  '--cache-path[cache file]:file:_files'
  '--bucket[S3 bucket]:bucket'
  '--key[object or row key]:key'
  '--region[AWS region]:region'
  '--profile[AWS profile]:profile'
  '--endpoint[S3 endpoint]:url'
  '--dsn[sqlite database]:file:_files'
  '--token[price API token]:token'
  '--base-url[price API base URL]:url'
  '--currency[quote currency]:currency'
  '--freshness[cache freshness seconds]:seconds'
  '--timeout[upstream timeout seconds]:seconds'
  )

  local -a output
  output=(
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-o --output)'{-o,--output}'[output format]:format:(text json yaml raw)'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--tldr[show tldr page]'
  )

  local -a catalog
  catalog=(
  '--items[items file]:file:_files'
  '--uploads[uploads dir]:dir:_directories'
  '--max-image-bytes[largest image]:bytes'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'spotctl commands' cmds
    return
  fi

  case $words[2] in
    calc)
      _arguments -C $store $output \
        '(-m --metal)'{-m,--metal}'[metal]:metal:(24k 22k 18k 14k 9k ag999 ag925 ag800)' \
        '(-w --weight)'{-w,--weight}'[grams]:grams' \
        '(-i --interactive)'{-i,--interactive}'[interactive calculator]' \
        '--spread[spread per gram]:amount' \
        '--payout[payout fraction]:fraction'
      ;;
    catalog)
      if (( CURRENT == 3 )); then
        _values 'catalog commands' list add update delete toggle-sold
        return
      fi
      case $words[3] in
        list)
          _arguments -C $catalog $output \
            '(-f --filter)'{-f,--filter}'[filters to apply]:filters' \
            '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
          ;;
        add|update)
          _arguments -C $catalog \
            '--title[title]:title' '--price[price]:price' '--description[description]:text' \
            '*--image[image file]:file:_files' '--version[catalog version]:version' \
            '--order[image order]:images' '*--delete-image[image to remove]:image'
          ;;
        *)
          _arguments -C $catalog '--version[catalog version]:version' '1:item id'
          ;;
      esac
      ;;
    quote)
      _arguments -C $store $output
      ;;
    serve)
      _arguments -C $store $catalog \
        '--addr[listen address]:addr' '--cors-origin[CORS origin]:origin' \
        '--admin-email[admin user]:email' '--admin-hash[bcrypt hash]:hash' \
        '--shutdown-timeout[drain seconds]:seconds' \
        '--spread[spread per gram]:amount' '--payout[payout fraction]:fraction'
      ;;
    hash-password)
      _arguments '--cost[bcrypt cost]:cost'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _spotctl spotctl
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := ""
	if args := cmd.Args().Slice(); len(args) > 0 {
		shell = args[0]
	}
	w := stdout(cmd)
	switch shell {
	case "bash":
		fmt.Fprint(w, bashCompletionScript)
	case "zsh":
		fmt.Fprint(w, zshCompletionScript)
	default:
		// Try to detect from SHELL or print help
		sh := os.Getenv("SHELL")
		if strings.HasSuffix(sh, "zsh") {
			fmt.Fprint(w, zshCompletionScript)
		} else if strings.HasSuffix(sh, "bash") {
			fmt.Fprint(w, bashCompletionScript)
		} else {
			fmt.Fprintln(os.Stderr, "usage: spotctl completion [bash|zsh]")
			return nil
		}
	}
	return nil
}

func CompletionCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "spotctl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
