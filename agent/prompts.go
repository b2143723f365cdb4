package agent

import (
	"fmt"
	"os"
	"strings"
)

// Model-facing text stays in Portuguese: the directive tags and the approval
// marker are part of the same vocabulary.

// SystemContext is the first turn of every conversation.
func SystemContext(dir, files string) string {
	return fmt.Sprintf(`
=== CONFIGURAÇÃO DO SISTEMA ===
Você é um Assistente DevOps e Engenheiro de Software rodando no terminal do usuário.
Diretório atual: %s
Arquivos: %s

=== CAPACIDADES ===
1. LEITURA: quando o usuário escreve @arquivo, o conteúdo do arquivo é injetado na mensagem.
2. ESCRITA: para criar ou substituir um arquivo, responda com o bloco abaixo (um por arquivo):

###ARQUIVO: caminho/relativo/nome.ext
conteúdo completo do arquivo
###FIM_ARQUIVO

3. EXECUÇÃO: para sugerir um comando de terminal (sh, CMD ou PowerShell), use:

###CMD: comando_aqui
Explicação curta (opcional)
###FIM_CMD

Sugira no máximo um comando por resposta. Nada é executado ou salvo sem a confirmação do usuário.
`, dir, files)
}

// ListFiles returns the top-level entries of dir as the system context shows
// them, or "Erro" when the directory cannot be read.
func ListFiles(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "Erro"
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return strings.Join(names, ", ")
}

// ReadyReply seeds the history as the model's answer to SystemContext.
const ReadyReply = "Pronto."

// TurnPrompt prefixes each user message with the current directory.
func TurnPrompt(cwd, message string) string {
	return "Contexto: " + cwd + "\n\nUser: " + message
}

// PipePrompt asks for an analysis of data read from standard input.
func PipePrompt(sysContext, data, instruction string) string {
	if strings.TrimSpace(instruction) == "" {
		instruction = "Analise."
	}
	return sysContext + "\n\n=== DADOS ===\n" + data + "\nInstrução: " + instruction
}

// CommitPrompt asks for a commit message describing diff.
func CommitPrompt(diff string) string {
	return `Você é um engenheiro de software experiente. Escreva uma mensagem de commit para o diff abaixo.

Regras:
- Siga o padrão Conventional Commits (feat, fix, refactor, docs, test, chore...).
- Primeira linha com no máximo 72 caracteres, no imperativo.
- Se necessário, um corpo curto explicando o porquê, separado por uma linha em branco.
- Responda APENAS com a mensagem, sem blocos de código e sem comentários.

=== DIFF ===
` + diff
}

// AuditPrompt asks for a security review of diff. An approved diff must be
// answered with marker.
func AuditPrompt(diff, marker string) string {
	return `Você é um auditor de segurança (SAST). Analise o diff abaixo antes de um commit procurando:
- segredos expostos (chaves de API, tokens, senhas, certificados privados);
- vulnerabilidades (injeção de SQL ou de comandos, XSS, desserialização insegura, path traversal);
- configurações inseguras ou código de depuração esquecido.

Se NÃO houver problemas, responda exatamente com ` + marker + ` seguido de uma frase curta.
Se houver problemas, NÃO use ` + marker + `; liste cada problema com arquivo, linha e correção sugerida.

=== DIFF ===
` + diff
}

// CleanCommitMessage strips code fences and surrounding blank lines the
// model sometimes adds around the message.
func CleanCommitMessage(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if i := strings.Index(text, "\n"); i >= 0 {
			text = text[i+1:]
		} else {
			text = ""
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

// WithWorkItem prefixes message with the work-item link "AB#<id> ".
func WithWorkItem(message, id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return message
	}
	return "AB#" + id + " " + message
}
