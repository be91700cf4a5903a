package prompt

// builtinTemplates maps template filename to content.
var builtinTemplates = map[string]string{
	"dockerfile.md": dockerfileTemplate,
}

const dockerfileTemplate = `You are an expert at writing Dockerfiles for containerizing applications.

## Project
Language: {{language}}
{{#if framework}}Framework: {{framework}}
{{/if}}Root files and manifests:
{{manifest_list}}
{{#if ports}}
Declared ports: {{ports}}
{{/if}}
## Manifest contents
{{manifest_contents}}
{{#if file_tree}}
## File tree (excerpt)
{{file_tree}}
{{/if}}
{{#if prior_dockerfile}}
## Previous Dockerfile
The following Dockerfile was generated earlier but the image build failed.
Fix the problem rather than repeating it:

{{prior_dockerfile}}
{{/if}}
{{#if build_failure}}
## Build failure
The build engine reported:

{{build_failure}}
{{/if}}
## Rules
- Only COPY files that actually exist in the project
- Use minimal base images (alpine variants when possible)
- Multi-stage builds ONLY for compiled languages (Go, Rust, Java, C/C++)
- For interpreted languages (Python, Node.js, Ruby): use single-stage builds
- Order layers for caching: copy dependency manifests first, install deps, then copy source
- Set a sensible WORKDIR (e.g., /app)
- Expose the correct port based on the project config
- Use CMD for the main process (avoid ENTRYPOINT unless strictly needed)
- Run as non-root user when practical
- Keep it simple and correct

Respond with ONLY the Dockerfile content. No markdown fences, no explanations.
`
